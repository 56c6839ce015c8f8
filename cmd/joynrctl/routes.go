package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zicheng-pan/joynr/pkg/httpclient"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage the routing table",
		Long:  "List, add and remove routing table entries. Adding and removing require an admin token.",
	}

	cmd.AddCommand(newRoutesListCommand())
	cmd.AddCommand(newRoutesAddCommand())
	cmd.AddCommand(newRoutesRemoveCommand())

	return cmd
}

func newRoutesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List routing table entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			routes, err := client.ListRoutes(ctx)
			if err != nil {
				return err
			}

			w := out(cmd)
			if len(routes) == 0 {
				muted.Fprintln(w, "No routes")
				return nil
			}
			fmt.Fprintf(w, "📋 %d route(s):\n", len(routes))
			for _, route := range routes {
				accent.Fprintf(w, "  %s", route.ParticipantID)
				fmt.Fprintf(w, " -> %s\n", route.Description)
			}
			return nil
		},
	}
}

func newRoutesAddCommand() *cobra.Command {
	var spec messaging.AddressSpec
	var kind, windowID string

	cmd := &cobra.Command{
		Use:   "add <participantId>",
		Short: "Add a routing table entry",
		Example: `  joynrctl routes add weather-provider --kind browser --window-id dashboard
  joynrctl routes add traffic-provider --kind channel --endpoint cc2:4242 --channel-id runtime-2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Kind = messaging.AddressKind(kind)
			if cmd.Flags().Changed("window-id") {
				spec.WindowID = &windowID
			}
			route, err := buildRoute(args[0], spec)
			if err != nil {
				return err
			}

			if err := requireAuthentication(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			added, err := client.AddRoute(ctx, route)
			if err != nil {
				return err
			}

			w := out(cmd)
			success.Fprintln(w, "✅ Route added!")
			fmt.Fprintf(w, "%s -> %s\n", added.ParticipantID, added.Description)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(messaging.KindBrowser), "Address kind: browser, channel or inprocess")
	cmd.Flags().StringVar(&windowID, "window-id", "", "Browser window id (browser)")
	cmd.Flags().StringVar(&spec.Endpoint, "endpoint", "", "Remote runtime host:port (channel)")
	cmd.Flags().StringVar(&spec.ChannelID, "channel-id", "", "Remote runtime channel id (channel)")

	return cmd
}

// buildRoute validates the address locally before it is sent.
// In-process addresses default to the routed participant.
func buildRoute(participantID string, spec messaging.AddressSpec) (httpclient.Route, error) {
	if spec.Kind == messaging.KindInProcess && spec.ParticipantID == "" {
		spec.ParticipantID = participantID
	}
	if _, err := spec.Address(); err != nil {
		return httpclient.Route{}, err
	}
	return httpclient.Route{ParticipantID: participantID, Address: spec}, nil
}

func newRoutesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <participantId>",
		Short: "Remove a routing table entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuthentication(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := client.RemoveRoute(ctx, args[0]); err != nil {
				return err
			}
			success.Fprintf(out(cmd), "✅ Route for %s removed\n", args[0])
			return nil
		},
	}
}
