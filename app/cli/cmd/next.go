package cmd

import (
	"log"
	"os"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"
	"argos/pkg/api"

	"github.com/spf13/cobra"
)

// NewNextCommand returns a new instance of an argos command
func NewNextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "next PIPELINE",
		Short: "generate the next pending step of a pipeline",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Next(newContext(), args[0])
			if err != nil {
				log.Fatal(err)
			}
			// The generated step is the last one holding an artifact that is not approved yet
			step := ""
			for _, s := range v.Steps {
				if s.Artifact != nil && s.Status != api.StatusApproved {
					step = s.ID
				}
			}
			common.PrintPipeline(os.Stdout, v, common.PrintOptions{Artifacts: step != "", Step: step})
		},
	}
	return command
}

// NewCancelCommand returns a new instance of an argos command
func NewCancelCommand() *cobra.Command {
	var reason string
	command := &cobra.Command{
		Use:   "cancel PIPELINE",
		Short: "cancel a pipeline",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Cancel(newContext(), args[0], reason)
			if err != nil {
				log.Fatal(err)
			}
			common.PrintPipeline(os.Stdout, v, common.PrintOptions{})
		},
	}
	command.Flags().StringVarP(&reason, "reason", "r", "", "reason of the cancellation")
	return command
}
