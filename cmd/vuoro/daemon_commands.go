package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vuoro/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var displayOnly bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the kiosk daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), c, exe, daemonctl.LaunchOptions{
				ConfigPath:  ctx.configPath(),
				DisplayOnly: displayOnly,
			}, 10*time.Second)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(out, "Daemon already running at %s\n", c.BaseURL())
			default:
				fmt.Fprintf(out, "Daemon started (pid %d) at %s\n", result.PID, c.BaseURL())
			}
			return nil
		},
	}
	startCmd.Flags().BoolVar(&displayOnly, "display-only", false, "Serve only the public display with fixed sample data")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background kiosk daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.Forced {
				fmt.Fprintf(out, "Daemon (pid %d) did not exit in time and was killed\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd}
}
