package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leadgrid/leadgen/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with the current effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"

		if _, err := os.Stat(path); err == nil && !configForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		if err := os.WriteFile(path, out, 0o600); err != nil {
			return eris.Wrapf(err, "write %s", path)
		}

		zap.L().Info("config written", zap.String("path", path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(redacted(cfg))
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		_, err = os.Stdout.Write(out)
		return eris.Wrap(err, "write config")
	},
}

// redacted returns a copy of the config with secrets blanked, for display.
func redacted(c *config.Config) *config.Config {
	cp := *c
	cp.Anthropic.Key = mask(cp.Anthropic.Key)
	cp.Places.Key = mask(cp.Places.Key)
	cp.Dataset.Token = mask(cp.Dataset.Token)
	cp.Auth.Secret = mask(cp.Auth.Secret)
	cp.Auth.GoogleSecret = mask(cp.Auth.GoogleSecret)
	cp.RateLimit.BypassToken = mask(cp.RateLimit.BypassToken)
	cp.CRM.HubSpot.AccessToken = mask(cp.CRM.HubSpot.AccessToken)
	cp.CRM.Zoho.AccessToken = mask(cp.CRM.Zoho.AccessToken)
	cp.CRM.Salesforce.ClientSecret = mask(cp.CRM.Salesforce.ClientSecret)
	return &cp
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
