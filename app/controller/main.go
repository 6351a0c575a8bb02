package main

import (
	"fmt"
	"os"

	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/neko-neko/echo-logrus/v2/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type opts struct {
	config  string // --config
	offline bool   // --offline
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o opts
	command := &cobra.Command{
		Use:   "argos-controller",
		Short: "argos-controller serves the argos pipeline API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
		SilenceUsage: true,
	}
	command.Flags().StringVarP(&o.config, "config", "c", "", fmt.Sprintf("config file (defaults to env %s)", config.EnvConfigFile))
	command.Flags().BoolVar(&o.offline, "offline", false, "use an in-process mock provider instead of the configured ones")
	return command
}

func run(o opts) error {
	ctx := context.Background()
	config.SetConfigFile(o.config)
	if err := config.ReadInConfig(); err != nil {
		ctx.Logger().Error(err)
		return err
	}

	var sc serverConfig
	if err := config.Unmarshal("server", &sc); err != nil {
		ctx.Logger().Error(err)
		return err
	}
	sc.defaults()
	if sc.LogLevel != "" {
		if err := context.SetLevel(sc.LogLevel); err != nil {
			return errors.Wrapf(err, "invalid log level %s", sc.LogLevel)
		}
	}

	h, closeFunc, err := build(ctx, sc, o.offline)
	if err != nil {
		ctx.Logger().Error(errors.Wrap(err, "failed to instantiate pipeline engine"))
		return err
	}
	defer closeFunc()

	e := newServer(h)
	e.Logger = &log.MyLogger{Logger: context.RootLogger()}
	e.Logger.Infof("http server started on 127.0.0.1:%d", sc.Port)
	return e.Start(fmt.Sprintf(":%d", sc.Port))
}
