package executor

import (
	"fmt"
	"strings"

	"argos/pkg/api"
	"argos/pkg/prompt"
	"argos/pkg/provider"
	"argos/pkg/router"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

type exec struct {
	router Router
	config Config
}

func (e *exec) Execute(ctx context.Context, in Input) (Output, error) {
	text, err := prompt.Build(prompt.Input{
		Stage:       in.Stage,
		Query:       in.Query,
		Constraints: in.Constraints,
		Previous:    in.Previous,
		Feedback:    in.Feedback,
	})
	if err != nil {
		return Output{}, errors.Wrapf(err, "cannot build request for stage %s", in.Stage.ID)
	}

	req := provider.Request{
		System:      in.Stage.System,
		Prompt:      text,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}
	ctx.Logger().Debugf("generating stage %s with %d previous stages", in.Stage.ID, len(in.Previous))
	res, err := e.router.Route(ctx, req, router.Options{
		PreferredProvider: e.config.PreferredProvider,
		Timeout:           e.config.Timeout,
	})
	if err != nil {
		var all router.ErrAllProvidersFailed
		if !errors.As(err, &all) {
			return Output{}, errors.Wrapf(err, "cannot route request for stage %s", in.Stage.ID)
		}
		ctx.Logger().Warnf("using placeholder for stage %s: %s", in.Stage.ID, all)
		result := Placeholder(in)
		return Output{
			Result:   result,
			Artifact: api.Artifact{Lines: prompt.Lines(result)},
			Attempts: all.Attempts,
		}, nil
	}

	result := prompt.Parse(res.Value)
	result.ProviderUsed = res.ProviderUsed
	result.Latency = res.Latency
	ctx.Logger().Infof("stage %s generated by %s in %s with score %d", in.Stage.ID, res.ProviderUsed, res.Latency, result.Score)
	return Output{
		Result:   result,
		Artifact: api.Artifact{Lines: prompt.Lines(result)},
		Attempts: res.Attempts,
	}, nil
}

// Placeholder returns the result used when no provider could generate the step.
// It only depends on the input.
func Placeholder(in Input) api.StepResult {
	name := in.Stage.Name
	if name == "" {
		name = in.Stage.ID
	}
	r := api.StepResult{
		Summary: []string{
			fmt.Sprintf("No provider could generate the %s stage. This placeholder has to be reviewed.", name),
		},
		KeyFindings:     []string{"Question under review: " + in.Query},
		Risks:           []string{"This stage has not been analysed, decisions based on it are unsupported"},
		Recommendations: []string{"Reject this step to regenerate it once a provider is available"},
		Score:           api.MidScore,
		Placeholder:     true,
	}
	r.Content = strings.Join(prompt.Lines(r), "\n")
	return r
}
