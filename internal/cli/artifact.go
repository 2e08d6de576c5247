package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewArtifactCmd создаёт группу команд для работы с артефактами.
func NewArtifactCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Manage artifacts",
	}

	cmd.AddCommand(
		newArtifactListCmd(clientFn, outputFn),
		newArtifactShowCmd(clientFn, outputFn),
		newArtifactDownloadCmd(clientFn, outputFn),
	)

	return cmd
}

func newArtifactListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list RUN_ID",
		Short: "List artifacts of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			artifacts, err := client.ListArtifacts(args[0], name)
			if err != nil {
				return err
			}

			headers := []string{"ID", "JOB", "NAME", "FILE", "SIZE", "CREATED"}
			rows := make([][]string, len(artifacts))
			for i, a := range artifacts {
				rows[i] = []string{
					a.ID, a.JobName, a.Name, a.FileName,
					strconv.FormatInt(a.Size, 10), a.CreatedAt,
				}
			}

			out.Print(headers, rows, artifacts)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filter by artifact name")

	return cmd
}

func newArtifactShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show artifact metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			artifact, err := client.GetArtifact(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "RUN_ID", "JOB", "NAME", "FILE", "SIZE", "CREATED"},
				[][]string{{
					artifact.ID, artifact.RunID, artifact.JobName, artifact.Name,
					artifact.FileName, strconv.FormatInt(artifact.Size, 10), artifact.CreatedAt,
				}},
				artifact,
			)
			return nil
		},
	}
}

func newArtifactDownloadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download artifact contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			dest := output
			if dest == "" {
				artifact, err := client.GetArtifact(args[0])
				if err != nil {
					return err
				}
				dest = artifact.FileName
			}

			n, err := client.DownloadArtifact(args[0], dest)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Downloaded %d bytes to %s", n, dest))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (artifact file name if not specified)")

	return cmd
}
