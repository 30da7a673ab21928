package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/scribeworks/scribe/pkg/api"
	"github.com/scribeworks/scribe/pkg/config"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List transcription jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := os.Getenv("SCRIBE_TOKEN")
		if token == "" {
			return fmt.Errorf("SCRIBE_TOKEN must be set")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		settings := config.Get()
		jobs, err := api.NewClient(settings.API.BaseURL, token).Jobs(ctx)
		if err != nil {
			return err
		}

		for _, job := range jobs {
			fmt.Printf("%-36s %-12s %s\n", job.JobID, job.Status, job.MediaName)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
