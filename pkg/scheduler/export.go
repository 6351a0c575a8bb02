package scheduler

import (
	"fmt"
	"strings"

	"argos/pkg/api"
	"argos/pkg/util/context"
	"argos/pkg/util/maps"
)

func (sc *scheduler) Export(ctx context.Context, pid string) (string, error) {
	view, err := sc.s.GetPipeline(ctx, pid)
	if err != nil {
		return "", err
	}
	return Markdown(view), nil
}

// Markdown renders the pipeline as a markdown document.
// Steps are rendered from their artifact, edits included. Steps not generated yet are listed with their status.
func Markdown(v api.PipelineView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Query)
	fmt.Fprintf(&b, "- Pipeline: %s\n", v.ID)
	fmt.Fprintf(&b, "- Status: %s\n", v.Status)
	fmt.Fprintf(&b, "- Progress: %d/%d approved\n", v.Approved, v.Total)
	fmt.Fprintf(&b, "- Aggregate score: %s\n", formatScore(v.AggregateScore))

	if len(v.Constraints) > 0 {
		b.WriteString("\n## Constraints\n\n")
		for _, c := range maps.Flatten(v.Constraints) {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	for i, s := range v.Steps {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, title(s))
		if s.Artifact == nil || s.Result == nil {
			fmt.Fprintf(&b, "_%s_\n", strings.ToLower(string(s.Status)))
			continue
		}
		status := strings.ToLower(string(s.Status))
		if s.Result.Placeholder {
			status += ", placeholder"
		} else if s.Result.ProviderUsed != "" {
			status += ", by " + s.Result.ProviderUsed
		}
		fmt.Fprintf(&b, "_%s, score %d/%d_\n\n", status, s.Result.Score, api.MaxScore)
		for _, l := range s.Artifact.Lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
		if s.ReviewFeedback != nil && s.ReviewFeedback.Notes != "" {
			fmt.Fprintf(&b, "\n> Reviewer notes: %s\n", s.ReviewFeedback.Notes)
		}
		if len(s.Artifact.Comments) > 0 {
			b.WriteString("\n### Comments\n\n")
			for _, c := range s.Artifact.Comments {
				resolved := ""
				if c.Resolved {
					resolved = " (resolved)"
				}
				fmt.Fprintf(&b, "- line %d, %s: %s%s\n", c.LineIndex, author(c.Author), c.Text, resolved)
			}
		}
	}
	return b.String()
}

func title(s api.Step) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func author(a string) string {
	if a == "" {
		return "anonymous"
	}
	return a
}
