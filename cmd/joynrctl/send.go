package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zicheng-pan/joynr/pkg/httpclient"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func newSendCommand() *cobra.Command {
	var (
		msgType   string
		sender    string
		recipient string
		payload   string
		ttl       time.Duration
		headers   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message through the runtime",
		Long: `Send a joynr message to a participant, or to a multicast id with --type multicast.
The payload must be valid JSON. Messages for participants without a route are
queued until the route is added.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSendRequest(msgType, sender, recipient, payload, ttl, headers)
			if err != nil {
				return err
			}
			return runSend(cmd, req)
		},
	}

	cmd.Flags().StringVar(&msgType, "type", string(messaging.TypeRequest), "Message type (request, oneWay, multicast, publication, ...)")
	cmd.Flags().StringVar(&sender, "sender", "", "Sender participant id (defaults to the client id)")
	cmd.Flags().StringVar(&recipient, "to", "", "Recipient participant id or multicast id (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "Message payload as JSON")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Time to live; zero never expires")
	cmd.Flags().StringToStringVar(&headers, "header", nil, "Custom headers as key=value")
	if err := cmd.MarkFlagRequired("to"); err != nil {
		panic(fmt.Sprintf("Failed to mark to as required: %v", err))
	}

	return cmd
}

func buildSendRequest(msgType, sender, recipient, payload string, ttl time.Duration, headers map[string]string) (httpclient.SendMessageRequest, error) {
	req := httpclient.SendMessageRequest{
		Type:      messaging.MessageType(msgType),
		Sender:    sender,
		Recipient: recipient,
		TTLMs:     ttl.Milliseconds(),
		Headers:   headers,
	}
	if ttl < 0 {
		return req, fmt.Errorf("ttl cannot be negative")
	}
	if payload != "" {
		if !json.Valid([]byte(payload)) {
			return req, fmt.Errorf("invalid JSON payload: %s", payload)
		}
		req.Payload = json.RawMessage(payload)
	}
	return req, nil
}

func runSend(cmd *cobra.Command, req httpclient.SendMessageRequest) error {
	if err := requireAuthentication(cmd); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	w := out(cmd)
	fmt.Fprintf(w, "Sending %s message to '%s'...\n", req.Type, req.Recipient)

	resp, err := client.SendMessage(ctx, req)
	if err != nil {
		return err
	}

	success.Fprintln(w, "✅ Message accepted!")
	fmt.Fprintf(w, "Message ID: %s\n", resp.MessageID)
	muted.Fprintf(w, "Accepted: %s\n", resp.Accepted.Format("2006-01-02 15:04:05"))

	return nil
}
