package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"argos/pkg/api"
)

type section int

const (
	sectionSummary section = iota
	sectionFindings
	sectionRisks
	sectionRecommendations
)

var (
	headerRegexp = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*|__)?\s*(summary|key\s+findings|findings|risks|risk\s+assessment|recommendations|recommendation)\s*(?:\*\*|__)?\s*:?\s*(?:\*\*|__)?\s*(.*)$`)
	scoreRegexp  = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*|__)?\s*(?:overall\s+)?score\s*(?:\*\*|__)?\s*[:=]?\s*(?:\*\*|__)?\s*(-?\d+)`)
	bulletRegexp = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)
)

// Parse extracts the structured result from a generated text.
// It never fails: missing sections are empty, a missing score is api.MidScore, scores are clamped.
func Parse(text string) api.StepResult {
	res := api.StepResult{
		Content:         strings.TrimSpace(text),
		KeyFindings:     []string{},
		Risks:           []string{},
		Recommendations: []string{},
		Score:           api.MidScore,
	}

	current := sectionSummary
	for _, line := range strings.Split(res.Content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := scoreRegexp.FindStringSubmatch(line); m != nil {
			if score, err := strconv.Atoi(m[1]); err == nil {
				res.Score = api.ClampScore(score)
			}
			continue
		}
		if m := headerRegexp.FindStringSubmatch(line); m != nil && isHeader(line, m[2]) {
			current = sectionOf(m[1])
			if item := cleanItem(m[2]); item != "" {
				add(&res, current, item)
			}
			continue
		}
		if m := bulletRegexp.FindStringSubmatch(line); m != nil {
			line = m[1]
		}
		if item := cleanItem(line); item != "" {
			add(&res, current, item)
		}
	}
	return res
}

// isHeader tells a section header ("Risks:", "## Risks") from a sentence starting with the same word.
func isHeader(line, rest string) bool {
	l := strings.TrimSpace(line)
	return rest == "" || strings.HasPrefix(l, "#") || strings.Contains(l, ":")
}

func sectionOf(name string) section {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	switch {
	case strings.Contains(n, "finding"):
		return sectionFindings
	case strings.HasPrefix(n, "risk"):
		return sectionRisks
	case strings.HasPrefix(n, "recommendation"):
		return sectionRecommendations
	}
	return sectionSummary
}

func add(r *api.StepResult, s section, item string) {
	switch s {
	case sectionFindings:
		r.KeyFindings = append(r.KeyFindings, item)
	case sectionRisks:
		r.Risks = append(r.Risks, item)
	case sectionRecommendations:
		r.Recommendations = append(r.Recommendations, item)
	default:
		r.Summary = append(r.Summary, item)
	}
}

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}

// Lines renders the result as artifact lines: one line per paragraph or bullet, in result order.
// Parse(strings.Join(Lines(r), "\n")) gives back the lists and the score of r.
func Lines(r api.StepResult) []string {
	var lines []string
	lines = append(lines, r.Summary...)
	lines = appendSection(lines, "KEY FINDINGS:", r.KeyFindings)
	lines = appendSection(lines, "RISKS:", r.Risks)
	lines = appendSection(lines, "RECOMMENDATIONS:", r.Recommendations)
	return append(lines, fmt.Sprintf("SCORE: %d/%d", r.Score, api.MaxScore))
}

func appendSection(lines []string, header string, items []string) []string {
	lines = append(lines, header)
	for _, i := range items {
		lines = append(lines, "- "+i)
	}
	return lines
}
