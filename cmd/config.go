package cmd

import (
	"errors"
	"os"

	"github.com/habedi/apiclient/config"
	"github.com/habedi/apiclient/pkg/clierr"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(
		configInitCmd(app),
		configShowCmd(app),
	)

	return cmd
}

// configInitCmd writes a new configuration file.
func configInitCmd(app *appContext) *cobra.Command {
	var baseURL, apiKey, tenant, tokenPath string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a configuration file",
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(app.configPath); err == nil && !force {
				return clierr.New(clierr.Validation, "Configuration file already exists at "+app.configPath+" (use --force to overwrite)", nil)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return clierr.New(clierr.Internal, "Failed to check for an existing configuration file", err)
			}

			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			if tokenPath != "" {
				cfg.TokenPath = tokenPath
			}
			cfg.APIKey = apiKey
			cfg.TenantName = tenant

			if err := cfg.Validate(); err != nil {
				return clierr.New(clierr.Validation, "Invalid configuration: "+err.Error(), err)
			}
			if err := config.Save(app.configPath, cfg); err != nil {
				return clierr.New(clierr.Internal, "Failed to write configuration file", err)
			}

			cmd.Println("Configuration written to", app.configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the API")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent with every request")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant name sent with every request")
	cmd.Flags().StringVar(&tokenPath, "token-path", "", "Path of the OAuth token endpoint")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")

	return cmd
}

// configShowCmd prints the effective configuration with secrets masked.
func configShowCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.configPath)
			if err != nil {
				return clierr.New(clierr.Validation, "Failed to load configuration from "+app.configPath, err)
			}
			if cfg.APIKey != "" {
				cfg.APIKey = "********"
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to render configuration", err)
			}
			cmd.Print(string(out))
			return nil
		},
	}
}
