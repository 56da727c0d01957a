package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/syncer"
)

// ScheduleCmd prints the 7-day schedule view centered on a date.
func ScheduleCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the week's jobs grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.RequireSession(cmd.Context()); err != nil {
				return err
			}

			center := time.Now()
			if raw, _ := cmd.Flags().GetString("date"); raw != "" {
				center, err = time.Parse("2006-01-02", raw)
				if err != nil {
					return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
				}
			}

			start, end := syncer.WeekAround(center)
			list, err := app.Syncer.FetchJobs(cmd.Context(), jobs.Filter{
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
			})
			if err != nil {
				return fmt.Errorf("failed to load schedule: %w", err)
			}

			grouped := syncer.GroupByDate(list, start, end)
			for _, day := range syncer.DateRange(start, end) {
				fmt.Printf("%s\n", day)
				bucket := grouped[day]
				if len(bucket) == 0 {
					fmt.Println("    no jobs scheduled")
					continue
				}
				for _, j := range bucket {
					fmt.Printf("    %s  %-12s %-20s %s\n",
						j.ID, j.Status, j.ServiceType, j.WindowLabel())
				}
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "Center day of the week view (YYYY-MM-DD, defaults to today)")
	return cmd
}
