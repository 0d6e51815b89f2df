package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/habedi/apiclient/client"
	"github.com/habedi/apiclient/pkg/clierr"
	"github.com/habedi/apiclient/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// requestCmd sends one authenticated request and prints the response body.
func requestCmd(app *appContext) *cobra.Command {
	var data string
	var headers []string

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an authenticated request and print the response body",
		Example: `  apiclient request GET /orders
  apiclient request POST /orders -d '{"sku":"abc"}' -H 'X-Trace: 1'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			if err := validation.ValidateMethod(method); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := validation.ValidateEndpointPath(args[1]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}

			opts, err := parseHeaders(headers)
			if err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}

			var body any
			if data != "" {
				body = []byte(data)
			}

			log.Info().Str("method", method).Str("path", args[1]).Msg("Sending request")
			resp, err := app.api.Do(cmd.Context(), method, args[1], body, opts...)
			if err != nil {
				return apiError(fmt.Sprintf("%s %s failed", method, args[1]), err)
			}

			cmd.Println(formatBody(resp))
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header in 'Name: value' form (repeatable)")

	return cmd
}

// parseHeaders turns 'Name: value' strings into request options.
func parseHeaders(raw []string) ([]client.RequestOption, error) {
	opts := make([]client.RequestOption, 0, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		opts = append(opts, client.WithHeader(name, strings.TrimSpace(value)))
	}
	return opts, nil
}

// formatBody indents JSON bodies and returns anything else as is.
func formatBody(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
