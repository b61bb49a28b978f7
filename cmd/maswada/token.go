package main

import (
	"errors"
	"fmt"
	"time"

	"maswada-backend/pkg/auth"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID    string
		sessionID string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 session token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("no JWT secret configured; set JWT_SECRET")
			}

			var audience []string
			if cfg.Auth.Audience != "" {
				audience = []string{cfg.Auth.Audience}
			}
			gen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
				SecretKey:  cfg.Auth.JWTSecret,
				Issuer:     cfg.Auth.Issuer,
				Audience:   audience,
				ExpiryTime: ttl,
			})
			if err != nil {
				return err
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			token, err := gen.GenerateToken(userID, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("user")
	return cmd
}
