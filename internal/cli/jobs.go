package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/syncer"
)

// JobsCmd groups the job listing and lifecycle commands.
func JobsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and act on jobs",
	}
	cmd.AddCommand(jobsListCmd(cfg))
	cmd.AddCommand(jobsStartCmd(cfg))
	cmd.AddCommand(jobsCompleteCmd(cfg))
	return cmd
}

func jobsListCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs with local filtering and search",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			status, _ := cmd.Flags().GetString("status")
			date, _ := cmd.Flags().GetString("date")
			limit, _ := cmd.Flags().GetInt("limit")
			group, _ := cmd.Flags().GetString("group")
			search, _ := cmd.Flags().GetString("search")

			list, err := app.Syncer.FetchJobs(cmd.Context(), jobs.Filter{
				Status: jobs.Status(status),
				Date:   date,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			enriched := app.Syncer.EnrichAll(cmd.Context(), list, snap.Role)
			enriched = syncer.FilterAndSort(enriched, syncer.Query{
				StatusGroup: jobs.Bucket(group),
				SearchText:  search,
			})

			if len(enriched) == 0 {
				fmt.Println("No jobs found")
				return nil
			}

			for _, item := range enriched {
				printJob(item)
			}
			return nil
		},
	}
	cmd.Flags().String("status", "", "Server-side status filter (pending, assigned, in_progress, completed, cancelled)")
	cmd.Flags().String("date", "", "Server-side scheduled date filter (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 0, "Maximum number of jobs to fetch")
	cmd.Flags().String("group", "", "Local display group (upcoming, completed, cancelled)")
	cmd.Flags().String("search", "", "Local case-insensitive search")
	return cmd
}

func jobsStartCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start <job-id>",
		Short: "Start an assigned job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			job, err := app.Jobs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			updated, err := app.Jobs.Start(cmd.Context(), snap, *job)
			if err != nil {
				return err
			}

			fmt.Printf("Job %s is now %s (started %s)\n",
				updated.ID, updated.Status, updated.ActualStartTime.Format("15:04:05"))
			return nil
		},
	}
}

func jobsCompleteCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <job-id>",
		Short: "Complete an in-progress job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")

			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			job, err := app.Jobs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			updated, err := app.Jobs.Complete(cmd.Context(), snap, *job, notes)
			if err != nil {
				return err
			}

			fmt.Printf("Job %s completed at %s\n",
				updated.ID, updated.ActualEndTime.Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().String("notes", "", "Completion notes")
	return cmd
}

func printJob(item syncer.Enriched) {
	fmt.Printf("%s  %-12s %-20s %s %s\n",
		item.ID, item.Status, item.ServiceType, item.ScheduledDate, item.WindowLabel())
	if item.Location.Address != "" {
		fmt.Printf("    at %s\n", item.Location.Address)
	}
	if item.Technician != nil {
		fmt.Printf("    technician: %s\n", item.Technician.Name)
	}
	if item.Customer != nil {
		fmt.Printf("    customer: %s\n", item.Customer.Name)
	}
}
