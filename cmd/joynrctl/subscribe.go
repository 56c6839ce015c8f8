package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zicheng-pan/joynr/pkg/httpclient"
	"github.com/zicheng-pan/joynr/pkg/subscription"
	"github.com/zicheng-pan/joynr/pkg/subscriptionqos"
)

func newSubscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Create subscriptions",
	}
	cmd.AddCommand(newSubscribeMulticastCommand())
	return cmd
}

// multicastOptions holds the flags of "subscribe multicast"
type multicastOptions struct {
	multicastID      string
	subscribedToName string
	subscriptionID   string
	receiver         string
	validity         time.Duration
	publicationTTL   time.Duration
}

func newSubscribeMulticastCommand() *cobra.Command {
	var opts multicastOptions

	cmd := &cobra.Command{
		Use:   "multicast",
		Short: "Subscribe a participant to a multicast",
		Long: `Register a multicast subscription. Multicast messages sent to the multicast id
are delivered to the receiver participant, which defaults to the client id.`,
		Example: `  joynrctl subscribe multicast --multicast-id weather-provider/weather --name weather --validity 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildMulticastRequest(opts)
			if err != nil {
				return err
			}

			if err := requireAuthentication(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sub, err := client.SubscribeMulticast(ctx, req)
			if err != nil {
				return err
			}

			w := out(cmd)
			success.Fprintln(w, "✅ Subscribed!")
			fmt.Fprintf(w, "Subscription ID: %s\n", sub.SubscriptionID)
			fmt.Fprintf(w, "Multicast: %s\n", sub.MulticastID)
			fmt.Fprintf(w, "Receiver: %s\n", sub.ReceiverParticipantID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.multicastID, "multicast-id", "", "Multicast id (required)")
	cmd.Flags().StringVar(&opts.subscribedToName, "name", "", "Name of the broadcast subscribed to (required)")
	cmd.Flags().StringVar(&opts.subscriptionID, "subscription-id", "", "Subscription id (generated when empty)")
	cmd.Flags().StringVar(&opts.receiver, "receiver", "", "Receiver participant id (defaults to the client id)")
	cmd.Flags().DurationVar(&opts.validity, "validity", 0, "How long the subscription stays valid; zero never expires")
	cmd.Flags().DurationVar(&opts.publicationTTL, "publication-ttl", 0, "Publication time to live")
	for _, name := range []string{"multicast-id", "name"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("Failed to mark %s as required: %v", name, err))
		}
	}

	return cmd
}

// buildMulticastRequest validates the subscription locally and renders it as a settings record
func buildMulticastRequest(opts multicastOptions) (httpclient.MulticastSubscribeRequest, error) {
	if opts.subscriptionID == "" {
		opts.subscriptionID = uuid.NewString()
	}

	settings := &subscription.MulticastSubscriptionRequestSettings{
		MulticastID:      opts.multicastID,
		SubscribedToName: opts.subscribedToName,
		SubscriptionID:   opts.subscriptionID,
	}
	if opts.validity > 0 || opts.publicationTTL > 0 {
		settings.Qos = subscriptionqos.NewMulticastSubscriptionQos(subscriptionqos.Settings{
			ValidityMs:       opts.validity.Milliseconds(),
			PublicationTtlMs: opts.publicationTTL.Milliseconds(),
		})
	}

	req, err := subscription.NewMulticastSubscriptionRequest(settings)
	if err != nil {
		return httpclient.MulticastSubscribeRequest{}, err
	}
	return httpclient.MulticastSubscribeRequest{
		ReceiverParticipantID: opts.receiver,
		Request:               req.ToRecord(),
	}, nil
}
