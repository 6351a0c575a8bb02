package common

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"argos/pkg/api"
	"argos/pkg/client"
)

const (
	progressBarWidth       = 20
	progressBarChar        = "■"
	progressBarPlaceholder = "·"
)

var (
	stepStatusIconMap     map[api.Status]string
	pipelineStatusIconMap map[api.PipelineStatus]string
)

func init() {
	stepStatusIconMap = map[api.Status]string{
		api.StatusPending:   "◷",
		api.StatusRunning:   "●",
		api.StatusCompleted: "?",
		api.StatusApproved:  "✔",
		api.StatusRejected:  "✖",
	}
	pipelineStatusIconMap = map[api.PipelineStatus]string{
		api.PipelineActive:    "●",
		api.PipelineCompleted: "✔",
		api.PipelineCancelled: "ǁ",
	}
}

// PrintOptions defines print options
type PrintOptions struct {
	Artifacts bool   // print the artifact of generated steps
	Step      string // restrict artifacts to this step
}

// PrintPipeline prints the pipeline in the given writer
func PrintPipeline(w io.Writer, v api.PipelineView, opts PrintOptions) {
	fmt.Fprintln(w)

	// Header
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Query:\t%s\n", v.Query)
	fmt.Fprintf(tw, "Pipeline:\t%s\n", v.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", v.Status)
	fmt.Fprintf(tw, "Created:\t%s\n", date(&v.CreatedAt))
	fmt.Fprintf(tw, "Finished:\t%s\n", date(v.CompletedAt))
	fmt.Fprintf(tw, "Duration:\t%s\n", duration(&v.CreatedAt, v.CompletedAt))
	fmt.Fprintf(tw, "Approved:\t%s\n", progression(v.Approved, v.Total))
	fmt.Fprintf(tw, "Score:\t%s\n", score(v.AggregateScore))
	tw.Flush()
	fmt.Fprintln(w)

	tw.Init(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tDURATION\tATTEMPTS\tSCORE\tPROVIDER")
	fmt.Fprintf(tw, "%s %s\t\t\t\t\n", pipelineStatusIconMap[v.Status], v.Query)
	for i, s := range v.Steps {
		prefix := "├"
		if i == len(v.Steps)-1 {
			prefix = "└"
		}
		printStep(tw, s, prefix)
	}
	tw.Flush()

	if !opts.Artifacts {
		return
	}
	for _, s := range v.Steps {
		if s.Artifact == nil || (opts.Step != "" && opts.Step != s.ID) {
			continue
		}
		fmt.Fprintln(w)
		PrintArtifact(w, s)
	}
}

func printStep(w io.Writer, s api.Step, prefix string) {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	stepScore, provider := "", ""
	if s.Result != nil {
		stepScore = fmt.Sprintf("%d/%d", s.Result.Score, api.MaxScore)
		provider = s.Result.ProviderUsed
		if s.Result.Placeholder {
			provider = "(placeholder)"
		}
	}
	fmt.Fprintf(w, "%s %s %s\t%s\t%d\t%s\t%s\n", prefix, stepStatusIconMap[s.Status], name, duration(s.StartedAt, s.CompletedAt), s.Attempts, stepScore, provider)
}

// PrintArtifact prints the numbered lines of the step artifact, with their comments
func PrintArtifact(w io.Writer, s api.Step) {
	fmt.Fprintf(w, "%s [%s]\n", s.ID, s.Status)
	if s.Artifact == nil {
		return
	}
	width := len(strconv.Itoa(len(s.Artifact.Lines)))
	for i, l := range s.Artifact.Lines {
		fmt.Fprintf(w, "%*d  %s\n", width, i, l)
		for j, c := range s.Artifact.Comments {
			if c.LineIndex != i {
				continue
			}
			state := ""
			if c.Resolved {
				state = " (resolved)"
			}
			fmt.Fprintf(w, "%s  ↳ #%d %s: %s%s\n", strings.Repeat(" ", width), j, author(c.Author), c.Text, state)
		}
	}
	if n := len(s.Artifact.Edits); n > 0 {
		fmt.Fprintf(w, "%d edit(s)\n", n)
	}
}

// PrintPipelines prints a summary line per pipeline
func PrintPipelines(w io.Writer, pipelines []api.PipelineInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PIPELINE\tSTATUS\tCREATED\tQUERY")
	for _, p := range pipelines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Status, date(&p.CreatedAt), p.Query)
	}
	tw.Flush()
}

// PrintProviders prints the health of the providers
func PrintProviders(w io.Writer, res client.ProvidersResponse) {
	fmt.Fprintf(w, "Strategy: %s\n\n", res.Strategy)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tAVAILABLE\tFAILURES\tLAST SUCCESS\tLAST FAILURE")
	for _, r := range res.Providers {
		failure := date(r.LastFailureAt)
		if r.LastFailureReason != "" {
			failure += " " + r.LastFailureReason
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%s\n", r.ProviderID, r.Available, r.ConsecutiveFailures, date(r.LastSuccessAt), strings.TrimSpace(failure))
	}
	tw.Flush()
}

// progression returns a string to be printed for the approval progression
func progression(current, total int) string {
	if total == 0 || current == total {
		return fmt.Sprintf("%d/%d", current, total)
	}
	return fmt.Sprintf("%s %d/%d", progressBar(current, total), current, total)
}

func progressBar(current, total int) string {
	value := (current * progressBarWidth) / total
	var b strings.Builder
	for i := 0; i < progressBarWidth; i++ {
		if i < value {
			b.WriteString(progressBarChar)
		} else {
			b.WriteString(progressBarPlaceholder)
		}
	}
	return b.String()
}

func score(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*s, 'f', 1, 64)
}

func author(a string) string {
	if a == "" {
		return "anonymous"
	}
	return a
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006 15:04:05.000")
}

func duration(start, end *time.Time) string {
	var d time.Duration
	if start == nil || start.IsZero() {
		return ""
	}
	if end == nil {
		d = time.Since(*start)
	} else {
		d = end.Sub(*start)
	}

	// Print
	if d.Seconds() <= 60.0 {
		return fmt.Sprintf("%0.0fs", d.Seconds())
	} else if d.Minutes() <= 60.0 {
		m := int64(d.Minutes())
		s := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%0.dm %0.0fs", m, s)
	}
	h := int64(d.Hours())
	m := int64(math.Mod(d.Minutes(), 60))
	s := math.Mod(d.Seconds(), 60)
	return fmt.Sprintf("%0.dh %0.dm %0.0fs", h, m, s)
}
