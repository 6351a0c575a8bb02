package cmd

import (
	"fmt"
	"io/ioutil"
	"log"

	"argos/app/cli/cmd/client"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewExportCommand returns a new instance of an argos command
func NewExportCommand() *cobra.Command {
	var output string
	command := &cobra.Command{
		Use:   "export PIPELINE",
		Short: "export a pipeline as markdown",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			md, err := cli.Export(newContext(), args[0])
			if err != nil {
				log.Fatal(err)
			}
			if output == "" {
				fmt.Print(md)
				return
			}
			if err := ioutil.WriteFile(output, []byte(md), 0644); err != nil {
				log.Fatal(errors.Wrapf(err, "cannot write file %s", output))
			}
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")
	return command
}
