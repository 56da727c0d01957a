package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/fieldsync/fieldsync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fieldctl",
	Short: "Terminal client for the field-service dispatch API",
}

// Execute wires all commands and runs the CLI.
func Execute(cfg *config.Config) {
	rootCmd.AddCommand(LoginCmd(cfg))
	rootCmd.AddCommand(LogoutCmd(cfg))
	rootCmd.AddCommand(WhoamiCmd(cfg))
	rootCmd.AddCommand(JobsCmd(cfg))
	rootCmd.AddCommand(ScheduleCmd(cfg))
	rootCmd.AddCommand(RegionCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
