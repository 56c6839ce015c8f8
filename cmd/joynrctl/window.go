package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zicheng-pan/joynr/pkg/httpclient"
)

func newWindowCommand() *cobra.Command {
	var windowID string

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Attach to the runtime as a browser window",
		Long: `Connect to the runtime's window endpoint and print every message routed to the window.
Route participants to this window with 'joynrctl routes add <id> --kind browser --window-id <windowId>'.
Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd, windowID)
		},
	}

	cmd.Flags().StringVar(&windowID, "window-id", "", "Window id to announce (assigned by the runtime when empty)")

	return cmd
}

func runWindow(cmd *cobra.Command, windowID string) error {
	if err := requireAuthentication(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window, err := client.ConnectWindow(ctx, windowID)
	if err != nil {
		return err
	}
	defer window.Close()

	w := out(cmd)
	accent.Fprintf(w, "🪟 Attached to %s", serverURL)
	if windowID != "" {
		accent.Fprintf(w, " as window %s", windowID)
	}
	fmt.Fprintln(w)
	muted.Fprintln(w, "Press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\n🛑 Detaching...")
			return nil
		case err := <-window.Errors():
			return fmt.Errorf("window connection lost: %w", err)
		case msg, ok := <-window.Messages():
			if !ok {
				return nil
			}
			printWebMessage(cmd, msg)
		}
	}
}

func printWebMessage(cmd *cobra.Command, msg httpclient.WebMessage) {
	w := out(cmd)
	if msg.Message == nil {
		muted.Fprintln(w, "(empty message)")
		return
	}
	m := msg.Message
	accent.Fprintf(w, "📨 [%s] %s", m.Type, m.ID)
	fmt.Fprintf(w, " %s -> %s\n", m.Sender, m.Recipient)
	if len(m.Payload) > 0 {
		if json.Valid(m.Payload) {
			fmt.Fprintf(w, "   %s\n", m.Payload)
		} else {
			fmt.Fprintf(w, "   %q\n", m.Payload)
		}
	}
}
