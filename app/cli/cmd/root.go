package cmd

import (
	"context"

	"argos/app/cli/cmd/client"
	pclient "argos/pkg/client"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewRootCommand returns a new instance of an argos command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "argos",
		Short: "argos is the command line interface to Argos",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&client.Server, "server", "s", "", "server url, defaults to $"+client.EnvServer+" or "+client.DefaultServer)

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewNextCommand())
	rootCmd.AddCommand(NewCancelCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewApproveCommand())
	rootCmd.AddCommand(NewRejectCommand())
	rootCmd.AddCommand(NewEditCommand())
	rootCmd.AddCommand(NewCommentCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewProvidersCommand())
	return rootCmd
}

// newContext returns the context of one command, all its requests share a correlation ID
func newContext() context.Context {
	return pclient.WithCorrelationID(context.Background(), uuid.New().String())
}
