package main

import (
	"github.com/spf13/cobra"

	"vuoro/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var displayOnly bool
	var port int
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if displayOnly {
				cfg.Server.DisplayOnly = true
			}
			if port > 0 {
				if err := cfg.SetPort(port); err != nil {
					return err
				}
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().BoolVar(&displayOnly, "display-only", false, "Serve only the public display with fixed sample data")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the listen port from server.bind")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
