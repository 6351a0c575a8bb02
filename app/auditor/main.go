package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type opts struct {
	config string // --config
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o opts
	command := &cobra.Command{
		Use:   "argos-auditor",
		Short: "argos-auditor records the events published by argos-controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
		SilenceUsage: true,
	}
	command.Flags().StringVarP(&o.config, "config", "c", "", fmt.Sprintf("config file (defaults to env %s)", config.EnvConfigFile))
	return command
}

func run(o opts) error {
	ctx := context.Background()
	config.SetConfigFile(o.config)
	if err := config.ReadInConfig(); err != nil {
		ctx.Logger().Error(err)
		return err
	}

	var ac auditorConfig
	if err := config.Unmarshal("auditor", &ac); err != nil {
		ctx.Logger().Error(err)
		return err
	}
	ac.defaults()
	if ac.LogLevel != "" {
		if err := context.SetLevel(ac.LogLevel); err != nil {
			return errors.Wrapf(err, "invalid log level %s", ac.LogLevel)
		}
	}

	a, err := newAuditor(ctx, ac)
	if err != nil {
		ctx.Logger().Error(errors.Wrap(err, "failed to instantiate auditor"))
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	ctx.Logger().Infof("auditing exchange %s with queue %s", ac.Exchange, ac.Queue)
	return a.Run(ctx)
}
