package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/scribeworks/scribe/pkg/api"
	"github.com/scribeworks/scribe/pkg/chat"
	"github.com/scribeworks/scribe/pkg/config"
	"github.com/scribeworks/scribe/pkg/session"
	"github.com/spf13/cobra"
)

var (
	askMediaNames []string
	askMediaFile  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about your transcribed media",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askMediaNames, "media", "m", nil, "restrict retrieval to these media files")
	askCmd.Flags().StringVarP(&askMediaFile, "file", "f", "", "target exactly one media file's transcript")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	settings := config.Get()
	question := strings.Join(args, " ")

	token := os.Getenv("SCRIBE_TOKEN")
	if token == "" {
		return fmt.Errorf("SCRIBE_TOKEN must be set")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	request := chat.Request{
		History:    []chat.Message{chat.NewUserMessage(question)},
		Username:   settings.Username,
		Token:      token,
		MediaNames: askMediaNames,
	}

	// Targeting a single file means chatting against that file's transcript
	// instead of cross-file retrieval; resolve its job id first.
	if askMediaFile != "" {
		job, err := api.NewClient(settings.API.BaseURL, token).JobByMediaName(ctx, askMediaFile)
		if err != nil {
			return err
		}
		request.TranscriptJobID = job.JobID
	}

	mode := chat.DecodeTolerant
	if settings.Chat.StrictDecode {
		mode = chat.DecodeStrict
	}

	sess := session.New(settings.Endpoint)
	defer sess.Disconnect()

	client := chat.NewClient(sess,
		chat.WithDecodeMode(mode),
		chat.WithHistoryWindow(settings.Chat.HistoryWindow),
	)

	updates, err := client.SendMessage(ctx, request)
	if err != nil {
		return err
	}

	var final chat.Update
	printed := 0
	for update := range updates {
		if update.Err != nil {
			return update.Err
		}
		// Print only what the latest view appended.
		if len(update.Text) > printed {
			fmt.Print(update.Text[printed:])
			printed = len(update.Text)
		}
		final = update
	}
	fmt.Println()

	if len(final.Citations) > 0 {
		fmt.Println()
		for _, c := range final.Citations {
			fmt.Printf("%s %s @ %.0fs\n", c.Token(), c.MediaName, c.Timestamp)
		}
	}
	return nil
}
