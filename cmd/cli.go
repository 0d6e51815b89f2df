package cmd

import (
	"context"
	"os"

	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/config"
	"github.com/habedi/apiclient/db"
	"github.com/habedi/apiclient/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// annotationStandalone marks commands that run without a client or database.
const annotationStandalone = "standalone"

// appContext holds what the subcommands share for one invocation.
type appContext struct {
	configPath string

	cfg *config.Config
	gdb *gorm.DB
	api *client.Client
}

func Execute() {
	app := &appContext{}
	rootCmd := newRootCmd(app)
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	err := rootCmd.Execute()
	if closeErr := app.close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to close the database.")
	}
	if err != nil {
		log.Error().Err(err).Str("type", string(clierr.TypeOf(err))).Msg("Command execution failed.")
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	return newRootCmd(&appContext{})
}

func newRootCmd(app *appContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "apiclient",
		Short:         "A command line client for bearer-token HTTP APIs",
		Long:          "apiclient sends authenticated requests to an HTTP API, refreshing the access token when the server rejects it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationStandalone] == "true" {
				return nil
			}
			return app.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", config.DefaultPath(), "Path to the configuration file")

	rootCmd.AddCommand(
		loginCmd(app),
		logoutCmd(app),
		requestCmd(app),
		batchCmd(app),
		statusCmd(app),
		configCmd(app),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// setup loads the configuration, opens the credential database and builds the client.
func (a *appContext) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return clierr.New(clierr.Validation, "Failed to load configuration from "+a.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return clierr.New(clierr.Validation, "Invalid configuration: "+err.Error(), err)
	}

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return clierr.New(clierr.Internal, "Failed to open the credential database", err)
	}

	api, err := client.New(client.Options{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		TenantName: cfg.TenantName,
		Headers:    cfg.Headers,
		TokenPath:  cfg.TokenPath,
		ClientID:   cfg.ClientID,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		Store:      db.NewEntryStore(gdb),
	})
	if err != nil {
		_ = db.Close(gdb)
		return clierr.New(clierr.Validation, "Failed to create the API client", err)
	}

	if restored, err := api.RestoreTokens(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore saved tokens")
	} else if restored {
		log.Debug().Msg("Restored saved tokens")
	}

	a.cfg, a.gdb, a.api = cfg, gdb, api
	return nil
}

func (a *appContext) close() error {
	if a.gdb == nil {
		return nil
	}
	err := db.Close(a.gdb)
	a.gdb = nil
	return err
}
