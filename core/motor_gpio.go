package core

// GPIOMotor drives step/dir/enable through a GPIODriver.
// The step pulse is a back-to-back set and clear, so its width is
// whatever the driver write takes.
type GPIOMotor struct {
	name   string
	gpio   GPIODriver
	pins   MotorPins
	active bool
}

// NewGPIOMotor creates a motor on the given driver. If gpio is nil the
// global driver is used at Init time.
func NewGPIOMotor(name string, gpio GPIODriver) *GPIOMotor {
	return &GPIOMotor{name: name, gpio: gpio}
}

// Init configures the pins and leaves the motor disabled
func (m *GPIOMotor) Init(pins MotorPins) error {
	if m.gpio == nil {
		m.gpio = MustGPIO()
	}
	m.pins = pins

	if err := m.gpio.ConfigureOutput(pins.Step); err != nil {
		return err
	}
	if err := m.gpio.ConfigureOutput(pins.Dir); err != nil {
		return err
	}
	// Idle level for the step pin
	if err := m.gpio.SetPin(pins.Step, pins.InvertStep); err != nil {
		return err
	}
	if pins.HasEnable {
		if err := m.gpio.ConfigureOutput(pins.Enable); err != nil {
			return err
		}
	}
	m.Disable()
	return nil
}

// Step pulses the step pin
func (m *GPIOMotor) Step() {
	m.gpio.SetPin(m.pins.Step, !m.pins.InvertStep)
	m.gpio.SetPin(m.pins.Step, m.pins.InvertStep)
}

// SetDirection sets the direction pin
func (m *GPIOMotor) SetDirection(reverse bool) {
	m.gpio.SetPin(m.pins.Dir, reverse != m.pins.InvertDir)
}

// Enable asserts the enable pin
func (m *GPIOMotor) Enable() {
	m.active = true
	if m.pins.HasEnable {
		m.gpio.SetPin(m.pins.Enable, m.pins.EnableActiveHigh)
	}
}

// Disable deasserts the enable pin
func (m *GPIOMotor) Disable() {
	m.active = false
	if m.pins.HasEnable {
		m.gpio.SetPin(m.pins.Enable, !m.pins.EnableActiveHigh)
	}
}

// Stop returns the step pin to idle
func (m *GPIOMotor) Stop() {
	m.gpio.SetPin(m.pins.Step, m.pins.InvertStep)
}

// Enabled reports whether the motor was last enabled
func (m *GPIOMotor) Enabled() bool {
	return m.active
}

// GetName returns the motor name
func (m *GPIOMotor) GetName() string {
	return m.name
}
