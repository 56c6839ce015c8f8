package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSubscriptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Manage multicast subscriptions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List multicast subscriptions",
		RunE:  runSubscriptionsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <subscriptionId>",
		Short: "Delete a multicast subscription",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubscriptionsDelete,
	})

	return cmd
}

func runSubscriptionsList(cmd *cobra.Command, args []string) error {
	if err := requireAuthentication(cmd); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	subs, err := client.ListMulticastSubscriptions(ctx)
	if err != nil {
		return err
	}

	w := out(cmd)
	if len(subs) == 0 {
		muted.Fprintln(w, "No subscriptions")
		return nil
	}
	fmt.Fprintf(w, "📋 %d subscription(s):\n", len(subs))
	for _, sub := range subs {
		accent.Fprintf(w, "  %s", sub.SubscriptionID)
		fmt.Fprintf(w, " %s (%s) -> %s\n", sub.MulticastID, sub.SubscribedToName, sub.ReceiverParticipantID)
	}
	return nil
}

func runSubscriptionsDelete(cmd *cobra.Command, args []string) error {
	if err := requireAuthentication(cmd); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := client.UnsubscribeMulticast(ctx, args[0]); err != nil {
		return err
	}
	success.Fprintf(out(cmd), "✅ Subscription %s deleted\n", args[0])
	return nil
}
