package main

import (
	"encoding/json"
	"io"
	"os"

	"maswada-backend/infrastructure/config"
	"maswada-backend/pkg/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	apiURL    string
	token     string
	configDir string
	jsonOut   bool
	verbose   bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.apiURL, client.StaticToken(o.token))
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.NewLoader(o.configDir).Load()
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "maswada",
		Short:         "Maswada notes command line",
		Long:          "Manage notes, run AI text operations and administer the Maswada backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("MASWADA_API_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("MASWADA_TOKEN"), "bearer token")
	flags.StringVar(&opts.configDir, "config-dir", os.Getenv("CONFIG_DIR"), "configuration directory")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newNotesCmd(opts))
	cmd.AddCommand(newAICmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
