package cmd

import (
	"log"
	"os"
	"strconv"

	"argos/app/cli/cmd/client"
	"argos/app/cli/cmd/common"
	"argos/pkg/api"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewApproveCommand returns a new instance of an argos command
func NewApproveCommand() *cobra.Command {
	var notes string
	command := &cobra.Command{
		Use:   "approve PIPELINE STEP",
		Short: "approve a generated step",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Approve(newContext(), args[0], args[1], notes)
			if err != nil {
				log.Fatal(err)
			}
			common.PrintPipeline(os.Stdout, v, common.PrintOptions{})
		},
	}
	command.Flags().StringVarP(&notes, "notes", "m", "", "reviewer notes")
	return command
}

// NewRejectCommand returns a new instance of an argos command
func NewRejectCommand() *cobra.Command {
	var feedback string
	command := &cobra.Command{
		Use:   "reject PIPELINE STEP",
		Short: "reject a generated step, it goes back to pending with the feedback",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Reject(newContext(), args[0], args[1], feedback)
			if err != nil {
				log.Fatal(err)
			}
			common.PrintPipeline(os.Stdout, v, common.PrintOptions{})
		},
	}
	command.Flags().StringVarP(&feedback, "notes", "m", "", "feedback given to the next generation")
	return command
}

// NewEditCommand returns a new instance of an argos command
func NewEditCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "edit PIPELINE STEP LINE CONTENT",
		Short: "overwrite one line of a step artifact",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			line, err := index("line", args[2])
			if err != nil {
				log.Fatal(err)
			}
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Edit(newContext(), args[0], args[1], line, args[3])
			if err != nil {
				log.Fatal(err)
			}
			printArtifact(v, args[1])
		},
	}
	return command
}

// NewCommentCommand returns a new instance of an argos command
func NewCommentCommand() *cobra.Command {
	var author string
	command := &cobra.Command{
		Use:   "comment PIPELINE STEP LINE TEXT",
		Short: "comment one line of a step artifact",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			line, err := index("line", args[2])
			if err != nil {
				log.Fatal(err)
			}
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			res, err := cli.Comment(newContext(), args[0], args[1], line, args[3], author)
			if err != nil {
				log.Fatal(err)
			}
			printArtifact(res.Pipeline, args[1])
		},
	}
	command.Flags().StringVar(&author, "author", os.Getenv("USER"), "author of the comment")
	return command
}

// NewResolveCommand returns a new instance of an argos command
func NewResolveCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "resolve PIPELINE STEP COMMENT",
		Short: "resolve a comment of a step artifact",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			comment, err := index("comment", args[2])
			if err != nil {
				log.Fatal(err)
			}
			cli, err := client.New()
			if err != nil {
				log.Fatal(err)
			}

			v, err := cli.Resolve(newContext(), args[0], args[1], comment)
			if err != nil {
				log.Fatal(err)
			}
			printArtifact(v, args[1])
		},
	}
	return command
}

func index(what, s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, errors.Errorf("invalid %s '%s', expected a positive integer", what, s)
	}
	return i, nil
}

// printArtifact prints the artifact of the step given by ID or index
func printArtifact(v api.PipelineView, ref string) {
	i := v.StepIndex(ref)
	if i < 0 {
		if n, err := strconv.Atoi(ref); err == nil && n >= 0 && n < len(v.Steps) {
			i = n
		}
	}
	if i < 0 {
		log.Fatalf("step %s not found", ref)
	}
	common.PrintArtifact(os.Stdout, v.Steps[i])
}
