package cmd

import (
	"context"
	"log"
	"time"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"

	tm "github.com/buger/goterm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultWatchInterval = time.Second

// NewWatchCommand returns a new instance of an argos command
func NewWatchCommand() *cobra.Command {
	var interval time.Duration
	command := &cobra.Command{
		Use:   "watch PIPELINE",
		Short: "watch a pipeline until it is completed or cancelled",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := watch(newContext(), args[0], interval); err != nil {
				log.Fatal(err)
			}
		},
	}
	command.Flags().DurationVarP(&interval, "interval", "i", defaultWatchInterval, "refresh interval")
	return command
}

func watch(ctx context.Context, pid string, interval time.Duration) error {
	cli, err := client.New()
	if err != nil {
		return errors.Wrap(err, "cannot create argos client")
	}
	tm.Clear()
	for {
		v, err := cli.Get(ctx, pid)
		if err != nil {
			return errors.Wrapf(err, "cannot get pipeline %s", pid)
		}
		tm.MoveCursor(1, 1)
		common.PrintPipeline(tm.Screen, v, common.PrintOptions{})
		tm.Flush()
		if v.Status.Finished() {
			break
		}
		time.Sleep(interval)
	}
	return nil
}
