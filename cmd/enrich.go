package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqmex/sinaica-scraper/internal/pollutant"
)

func newEnrichCmd() *cobra.Command {
	var (
		output   string
		date     string
		windowUI string
		snapshot bool
	)

	cmd := &cobra.Command{
		Use:   "enrich <state>",
		Short: "Fetches pollutant time series for every station in a state",
		Long: `Fetches the six criteria pollutant series (CO, NO2, O3, SO2, PM10, PM2.5)
for every station of the named state and prints the enriched stations as JSON.
By default the shared catalog is updated in place; --snapshot leaves it
untouched and returns copies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			var start time.Time
			if date != "" {
				start, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			window, err := pollutant.ParseWindow(windowUI)
			if err != nil {
				return err
			}

			enrich := rt.app.EnrichInPlace
			if snapshot {
				enrich = rt.app.EnrichSnapshot
			}
			stations, err := enrich(cmd.Context(), args[0], start, window)
			if err != nil {
				return fmt.Errorf("enrich %q: %w", args[0], err)
			}
			return writeJSONOutput(output, stations)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	cmd.Flags().StringVar(&date, "date", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&windowUI, "window", "day", "time window: day, week, two-weeks or month")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "return copies instead of updating the catalog")
	return cmd
}
