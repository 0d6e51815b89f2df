package cmd

import (
	"context"
	"time"

	"github.com/habedi/apiclient/auth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statusCmd shows the active configuration and the state of the stored credentials.
func statusCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configuration and credential state",
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Setting", "Value"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)
			table.AppendBulk(statusRows(cmd.Context(), app, time.Now()))
			table.Render()
		},
	}
}

func statusRows(ctx context.Context, app *appContext, now time.Time) [][]string {
	rows := [][]string{
		{"Config file", app.configPath},
		{"Base URL", app.cfg.BaseURL},
		{"Tenant", valueOr(app.cfg.TenantName, "(not set)")},
		{"API key", setOrNot(app.cfg.APIKey)},
		{"Database", app.cfg.Database},
	}

	rows = append(rows, []string{"Username", valueOr(rememberedUsername(ctx, app.api.Store()), "(none)")})

	pair := app.api.Tokens()
	if pair == nil {
		return append(rows, []string{"Logged in", "no"})
	}
	return append(rows,
		[]string{"Logged in", "yes"},
		[]string{"Access token", auth.Preview(pair.AccessToken)},
		[]string{"Refresh token", describeExpiry(auth.NewJWTCodec(), pair.RefreshToken, now)},
	)
}

// describeExpiry reports when token expires, or why that is unknown.
func describeExpiry(codec auth.TokenCodec, token string, now time.Time) string {
	exp, err := codec.Expiry(token)
	if err != nil {
		return "expiry unknown (treated as expired)"
	}
	if auth.IsExpired(codec, token, now) {
		return "expired at " + exp.Local().Format(time.RFC3339)
	}
	return "valid until " + exp.Local().Format(time.RFC3339)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func setOrNot(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}
