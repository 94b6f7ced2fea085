// vuorod runs the kiosk daemon: the ticket button, printer, sound cue, and
// the display and admin HTTP surface. It takes no subcommands; use the vuoro
// CLI to operate a running daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"vuoro/internal/config"
	"vuoro/internal/daemonrun"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	displayOnly bool
	port        int
	logLevel    string
}

func parseFlags(args []string, out io.Writer) (options, bool, error) {
	var opts options
	flagSet := pflag.NewFlagSet("vuorod", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "configuration file path")
	flagSet.BoolVar(&opts.displayOnly, "display-only", false, "serve only the display with fixed sample data")
	flagSet.IntVarP(&opts.port, "port", "p", 0, "override the listen port from server.bind")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, true, nil
		}
		return opts, false, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, false, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, help, err := parseFlags(args, out)
	if err != nil || help {
		return err
	}

	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.displayOnly {
		cfg.Server.DisplayOnly = true
	}
	if opts.port > 0 {
		if err := cfg.SetPort(opts.port); err != nil {
			return err
		}
	}

	return daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: opts.logLevel})
}
