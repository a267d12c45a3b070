package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemagen/internal/web/api"
	"github.com/conduit-lang/schemagen/internal/web/auth"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		scopes  []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the schema API",
		Example: `  schemagen token --subject ci
  schemagen token --subject ci --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := opts.cfg.Server.JWTSecret
			if secret == "" {
				return errors.New("server.jwt_secret is not set")
			}
			token, err := auth.NewAuthService(secret, ttl).GenerateToken(subject, scopes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{api.ReadScope}, "granted scopes")
	cmd.MarkFlagRequired("subject")
	return cmd
}
