package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type startOpts struct {
	constraints []string // --constraint
	next        bool     // --next
	watch       bool     // --watch
}

// NewStartCommand returns a new instance of an argos command
func NewStartCommand() *cobra.Command {
	var startOpts startOpts
	command := &cobra.Command{
		Use:   "start QUERY",
		Short: "start a pipeline for a query",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			constraints, err := parseConstraints(startOpts.constraints)
			if err != nil {
				log.Fatal(err)
			}
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			ctx := newContext()
			v, err := cli.Start(ctx, args[0], constraints)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Pipeline started with ID %s\n", v.ID)

			if startOpts.next {
				if v, err = cli.Next(ctx, v.ID); err != nil {
					log.Fatal(err)
				}
			}
			if startOpts.watch {
				if err := watch(ctx, v.ID, defaultWatchInterval); err != nil {
					log.Fatal(err)
				}
				return
			}
			common.PrintPipeline(os.Stdout, v, common.PrintOptions{Artifacts: startOpts.next})
		},
	}
	command.Flags().StringArrayVarP(&startOpts.constraints, "constraint", "c", nil, "constraint given as key=value, may be repeated")
	command.Flags().BoolVarP(&startOpts.next, "next", "n", false, "generate the first step right away")
	command.Flags().BoolVarP(&startOpts.watch, "watch", "w", false, "watch the pipeline until it finishes")

	return command
}

// parseConstraints returns the constraints given as key=value.
// Integer, float and boolean values are converted.
func parseConstraints(kvs []string) (map[string]interface{}, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	constraints := make(map[string]interface{}, len(kvs))
	for _, kv := range kvs {
		i := strings.Index(kv, "=")
		if i <= 0 {
			return nil, errors.Errorf("invalid constraint '%s', expected key=value", kv)
		}
		constraints[strings.TrimSpace(kv[:i])] = value(strings.TrimSpace(kv[i+1:]))
	}
	return constraints, nil
}

func value(s string) interface{} {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
