package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vuoro/internal/api"
	"vuoro/internal/client"
)

func newTicketCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newIssueCommand(ctx),
		newCallCommand(ctx),
		newStatusCommand(ctx),
		newQueueCommand(ctx),
	}
}

func newIssueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Issue the next ticket, as if the button was pressed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			resp, err := c.Issue(cmd.Context())
			if err != nil {
				return wrapClientError(err, c)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issued ticket %d\n", resp.Number)
			return nil
		},
	}
}

func newCallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "call <number>",
		Short: "Call a waiting ticket to the counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid ticket number %q", args[0])
			}
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			resp, err := c.Call(cmd.Context(), number)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.NotFound() {
					return fmt.Errorf("ticket %d is not waiting", number)
				}
				return wrapClientError(err, c)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now serving %d\n", resp.Number)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the number being served and recent calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			status, err := c.Status(cmd.Context())
			if err != nil {
				return wrapClientError(err, c)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Now serving: %s\n", status.Current)
			fmt.Fprintf(out, "Recent:      %s\n", joinNumbers(status.History))
			return nil
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List waiting tickets and sink health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			q, err := c.Queue(cmd.Context())
			if err != nil {
				return wrapClientError(err, c)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, q)
			}
			renderQueue(cmd, q)
			return nil
		},
	}
}

func renderQueue(cmd *cobra.Command, q api.AdminQueue) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Now serving: %s (next ticket %d)\n", q.Current, q.NextID)

	if len(q.Pending) == 0 {
		fmt.Fprintln(out, "No one in queue!")
	} else {
		rows := make([][]string, 0, len(q.Pending))
		for i, ticket := range q.Pending {
			rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(ticket.Number), ticket.Clock})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Ticket", "Issued"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
	}

	if q.Sinks == nil {
		return
	}
	colorize := shouldColorize(out)
	fmt.Fprintln(out, "Sinks:")
	fmt.Fprintln(out, renderStatusLine("Printer", printerKind(q.Sinks), printerMessage(q.Sinks), colorize))
	fmt.Fprintln(out, renderStatusLine("Sound", enabledKind(q.Sinks.Sound), yesNo(q.Sinks.Sound), colorize))
	fmt.Fprintln(out, renderStatusLine("Button", enabledKind(q.Sinks.Button), yesNo(q.Sinks.Button), colorize))
}

func printerKind(s *api.SinkHealth) statusKind {
	switch {
	case s.Printer.Online:
		return statusOK
	case s.Printer.Mode == "disabled":
		return statusInfo
	default:
		return statusWarn
	}
}

func printerMessage(s *api.SinkHealth) string {
	msg := fmt.Sprintf("%s, %d printed", s.Printer.Mode, s.Printer.Printed)
	if s.Printer.LastError != "" {
		msg += ", last error: " + s.Printer.LastError
	}
	return msg
}

func enabledKind(enabled bool) statusKind {
	if enabled {
		return statusOK
	}
	return statusInfo
}

func joinNumbers(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
