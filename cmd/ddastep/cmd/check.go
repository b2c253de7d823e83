package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"ddastep/config"
)

var checkCmd = &cobra.Command{
	Use:   "check <config.json>",
	Short: "Validate a machine config",
	Long:  `Load a machine config and report every problem found, not just the first.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	on := styled(out)

	cfg, err := config.LoadConfig(data)
	if err != nil {
		errs := multierr.Errors(err)
		for _, e := range errs {
			fmt.Fprintf(out, "%s %v\n", paint(on, errorStyle, "error:"), e)
		}
		return fmt.Errorf("%s: %d problem(s)", args[0], len(errs))
	}

	fmt.Fprintf(out, "%s %d motors, %d Hz pulse, %d substeps\n",
		paint(on, okStyle, "ok:"), len(cfg.Motors), cfg.PulseFrequency, cfg.Substeps)
	return nil
}
