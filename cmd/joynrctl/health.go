package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check runtime health",
		Long:  "Check the health status of the cluster controller",
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	w := out(cmd)
	fmt.Fprintf(w, "Checking health of %s...\n", serverURL)

	health, err := client.GetHealth(ctx)
	if health == nil {
		return fmt.Errorf("failed to check health: %w", err)
	}

	if health.Healthy {
		success.Fprintln(w, "✅ Runtime is healthy!")
	} else {
		failure.Fprintln(w, "❌ Runtime is not healthy!")
	}
	fmt.Fprintf(w, "Runtime: %s\n", health.RuntimeID)
	fmt.Fprintf(w, "Routes: %d\n", health.Routes)
	fmt.Fprintf(w, "Queued Messages: %d\n", health.QueuedMessages)
	fmt.Fprintf(w, "Multicast Receivers: %d\n", health.MulticastReceivers)
	fmt.Fprintf(w, "Connected Windows: %d\n", health.ConnectedWindows)
	if health.Message != "" {
		muted.Fprintf(w, "Message: %s\n", health.Message)
	}

	return err
}
