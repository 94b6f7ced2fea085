package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vuoro/internal/ledger"
	"vuoro/internal/logging"
	"vuoro/internal/notifications"
	"vuoro/internal/printer"
	"vuoro/internal/sound"
)

// testTicketNumber is printed by test-print when no number is given.
const testTicketNumber = 67

func newHardwareCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTestPrintCommand(ctx),
		newTestSoundCommand(ctx),
		newTestNotifyCommand(ctx),
	}
}

func newTestPrintCommand(ctx *commandContext) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "test-print [number]",
		Short: "Print a sample ticket without touching the queue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			number := testTicketNumber
			if len(args) == 1 {
				number, err = strconv.Atoi(args[0])
				if err != nil || number <= 0 {
					return fmt.Errorf("invalid ticket number %q", args[0])
				}
			}

			pcfg := cfg.Printer
			pcfg.Enabled = true
			if device != "" {
				pcfg.Device = device
			}
			p, err := printer.New(pcfg, logging.NewNop())
			if err != nil {
				return err
			}
			if err := p.Print(cmd.Context(), ledger.Ticket{Number: number, IssuedAt: time.Now()}); err != nil {
				return err
			}

			health := p.Health()
			out := cmd.OutOrStdout()
			if health.Mode == printer.ModeDummy {
				fmt.Fprintf(out, "Printer not found at %s; ticket %d logged only\n", pcfg.Device, number)
				return nil
			}
			fmt.Fprintf(out, "Printed ticket %d on %s\n", number, pcfg.Device)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Printer device node (defaults to printer.device)")
	return cmd
}

func newTestSoundCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-sound",
		Short: "Play the ticket audio cue once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			scfg := cfg.Sound
			scfg.Enabled = true
			player := sound.New(scfg, logging.NewNop())
			if err := player.Play(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playing %s with %s\n", scfg.File, scfg.Player)
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are not configured (set notifications.ntfy_topic)")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
