package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"ddastep/host/serial"
	"ddastep/host/wslink"
)

// ErrNoDevice is returned when no port was given and none was detected
var ErrNoDevice = errors.New("no serial port given and no RP2040 found")

// passwordEnv holds the WebSocket password so it never appears in shell history
const passwordEnv = "DDASTEP_PASSWORD"

// OpenConnection opens the WebSocket given by --url, or else --port, or
// else the first attached RP2040
func OpenConnection() (io.ReadWriteCloser, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			if password, err = GetPassword(); err != nil {
				return nil, "", err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conn, err := wslink.Dial(ctx, wsURL, wslink.Options{
			Username:      wsUsername,
			Password:      password,
			SkipSSLVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	device := portName
	if device == "" {
		found, err := serial.FindRP2040()
		if err != nil {
			return nil, "", fmt.Errorf("enumerate ports: %w", err)
		}
		if found == "" {
			return nil, "", ErrNoDevice
		}
		device = found
	}

	cfg := serial.DefaultConfig(device)
	cfg.Baud = baudRate
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", device, err)
	}
	return port, fmt.Sprintf("Serial: %s @ %d baud", device, baudRate), nil
}

// GetPassword reads the password from the environment or prompts for it
func GetPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
