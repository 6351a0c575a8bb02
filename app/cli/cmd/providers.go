package cmd

import (
	"log"
	"os"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"

	"github.com/spf13/cobra"
)

// NewProvidersCommand returns a new instance of an argos command
func NewProvidersCommand() *cobra.Command {
	var reset bool
	command := &cobra.Command{
		Use:   "providers",
		Short: "print the health of the providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			get := cli.Providers
			if reset {
				get = cli.ResetProviders
			}
			res, err := get(newContext())
			if err != nil {
				log.Fatal(err)
			}
			common.PrintProviders(os.Stdout, res)
		},
	}
	command.Flags().BoolVar(&reset, "reset", false, "forget the provider failures first")
	return command
}
