package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/habedi/apiclient/pkg/clierr"
	"github.com/habedi/apiclient/pkg/pool"
	"github.com/habedi/apiclient/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// batchOutcome is what one GET in a batch produced.
type batchOutcome struct {
	Bytes   int
	Elapsed time.Duration
}

// batchCmd sends concurrent GET requests. When the access token has expired every
// worker sees a 401 at once and the client refreshes the token a single time.
func batchCmd(app *appContext) *cobra.Command {
	var count, numWorkers int
	var rate float64

	cmd := &cobra.Command{
		Use:   "batch PATH [PATH...]",
		Short: "Send concurrent GET requests and summarize the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateWorkerCount(numWorkers); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if count < 1 {
				return clierr.New(clierr.Validation, "Count must be at least 1", nil)
			}
			for _, path := range args {
				if err := validation.ValidateEndpointPath(path); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
			}

			if rate < 0 {
				return clierr.New(clierr.Validation, "Rate must not be negative", nil)
			}
			if rate > 0 {
				app.api.SetRateLimit(rate)
			}

			paths := make([]string, 0, len(args)*count)
			for i := 0; i < count; i++ {
				paths = append(paths, args...)
			}

			return runBatch(cmd, app, paths, numWorkers)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of times to request each path")
	cmd.Flags().IntVarP(&numWorkers, "workers", "w", 5, "Number of concurrent workers [1-20]")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 0, "Maximum requests per second (overrides rate_limit from the config)")

	return cmd
}

func runBatch(cmd *cobra.Command, app *appContext, paths []string, numWorkers int) error {
	log.Info().Int("requests", len(paths)).Int("workers", numWorkers).Msg("Starting batch")

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Sending requests..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)

	results := pool.Run(cmd.Context(), paths, numWorkers, func(ctx context.Context, path string) (batchOutcome, error) {
		start := time.Now()
		body, err := app.api.Get(ctx, path)
		if barErr := bar.Add(1); barErr != nil {
			log.Warn().Err(barErr).Msg("Failed to update progress bar")
		}
		return batchOutcome{Bytes: len(body), Elapsed: time.Since(start)}, err
	})
	_ = bar.Finish()

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"#", "Path", "Result", "Bytes", "Time"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	for i, r := range results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Item,
			describeResult(r.Err),
			strconv.Itoa(r.Value.Bytes),
			r.Value.Elapsed.Round(time.Millisecond).String(),
		})
	}
	table.Render()

	errs := pool.Errors(results)
	if len(errs) > 0 {
		msg := fmt.Sprintf("%d of %d requests failed", len(errs), len(results))
		return clierr.New(clierr.Network, msg, errors.Join(errs...))
	}
	cmd.Printf("All %d requests succeeded.\n", len(results))
	return nil
}
