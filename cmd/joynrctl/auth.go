package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the cluster controller",
		Long: `Authenticate with the cluster controller using your client ID.
This will generate a JWT token that can be used for subsequent requests.`,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	w := out(cmd)
	fmt.Fprintf(w, "Authenticating with %s as client %s...\n", serverURL, clientID)

	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	token := client.GetToken()
	success.Fprintln(w, "✅ Authentication successful!")
	fmt.Fprintf(w, "Token: %s\n", token)
	fmt.Fprintf(w, "\nSave this token for future use:\n")
	accent.Fprintf(w, "  export JOYNR_TOKEN=\"%s\"\n", token)

	return nil
}
