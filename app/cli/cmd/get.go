package cmd

import (
	"log"
	"os"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"

	"github.com/spf13/cobra"
)

// NewGetCommand returns a new instance of an argos command
func NewGetCommand() *cobra.Command {
	var opts common.PrintOptions
	command := &cobra.Command{
		Use:   "get PIPELINE",
		Short: "print a pipeline",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Get(newContext(), args[0])
			if err != nil {
				log.Fatal(err)
			}
			common.PrintPipeline(os.Stdout, v, opts)
		},
	}
	command.Flags().BoolVarP(&opts.Artifacts, "artifacts", "a", false, "print the artifacts of generated steps")
	command.Flags().StringVar(&opts.Step, "step", "", "print the artifact of this step only")
	return command
}

// NewListCommand returns a new instance of an argos command
func NewListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list the pipelines, most recent first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			pipelines, err := cli.List(newContext())
			if err != nil {
				log.Fatal(err)
			}
			common.PrintPipelines(os.Stdout, pipelines)
		},
	}
	return command
}
