package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vuoro/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var gpioChip string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, hardware, and notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{GPIOChip: gpioChip})
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, "Readiness:")
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
				}
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gpioChip, "gpio-chip", "", "Override the GPIO chip used by the button check")
	return cmd
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case r.Skipped:
		return statusInfo
	case r.Passed:
		return statusOK
	default:
		return statusError
	}
}
