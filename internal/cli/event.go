package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewEventCmd создаёт группу команд для отправки событий.
func NewEventCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Send trigger events",
	}

	cmd.AddCommand(newEventPushCmd(clientFn, outputFn))

	return cmd
}

func newEventPushCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var pipeline string
	var branch string
	var sha string
	var actor string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send a push event to trigger a pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.SendPushEvent(PushEventRequest{
				Pipeline: pipeline,
				Branch:   branch,
				SHA:      sha,
				Actor:    actor,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run created: %s", run.ID))
			out.Print(
				[]string{"ID", "PIPELINE_ID", "VERSION", "STATUS", "BRANCH", "SHA"},
				[][]string{{
					run.ID, run.PipelineID, strconv.Itoa(run.Version), run.Status,
					run.Event.Branch, run.Event.SHA,
				}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&pipeline, "pipeline", "", "Pipeline name (required)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch that was pushed (required)")
	cmd.Flags().StringVar(&sha, "sha", "", "Commit SHA (required)")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor who pushed")
	cmd.MarkFlagRequired("pipeline")
	cmd.MarkFlagRequired("branch")
	cmd.MarkFlagRequired("sha")

	return cmd
}
