package prompt

import (
	"fmt"
	"strings"

	"argos/pkg/api"
	"argos/pkg/util/maps"
	"argos/pkg/util/template"

	"github.com/pkg/errors"
)

// Previous is what a stage learns from an earlier, approved, stage
type Previous struct {
	Stage           string
	Name            string
	KeyFindings     []string
	Recommendations []string
}

// Input is everything a stage request is built from
type Input struct {
	Stage       api.StageSpec
	Query       string
	Constraints map[string]interface{}
	Previous    []Previous
	Feedback    string // reviewer notes of the last rejection
}

// Build renders the stage template for the given input.
// The previous context and the reviewer feedback are appended when the template does not reference them.
func Build(in Input) (string, error) {
	tpl := template.New(in.Stage.Template)
	referenced := make(map[string]bool)
	for _, e := range tpl.FindAll() {
		referenced[e.Root()] = true
	}

	text, err := tpl.Resolve(resolver(in))
	if err != nil {
		return "", errors.Wrapf(err, "cannot render template of stage %s", in.Stage.ID)
	}
	text = strings.TrimSpace(text)

	if !referenced["context"] && len(in.Previous) > 0 {
		text += "\n\n" + previousContext(in.Previous)
	}
	if !referenced["feedback"] && in.Feedback != "" {
		text += "\n\n" + feedback(in.Feedback)
	}
	return text, nil
}

func resolver(in Input) template.ResolveFunc {
	return func(e template.Expression) (interface{}, error) {
		switch e.Root() {
		case "query":
			return in.Query, nil
		case "stage":
			return in.Stage.Name, nil
		case "context":
			return previousContext(in.Previous), nil
		case "feedback":
			return feedback(in.Feedback), nil
		case "constraints":
			if e.Text == "constraints" {
				lines := maps.Flatten(in.Constraints)
				if len(lines) == 0 {
					return "none", nil
				}
				for i := range lines {
					lines[i] = "- " + lines[i]
				}
				return lines, nil
			}
			v := maps.Get(in.Constraints, strings.TrimPrefix(e.Text, "constraints."))
			if v == nil {
				return "unspecified", nil
			}
			return v, nil
		}
		// Bare constraint keys, such as @{budget}
		v, err := template.ResolveWithMap(in.Constraints)(e)
		if err != nil {
			return nil, errors.Errorf("unknown expression %s", e)
		}
		return v, nil
	}
}

func previousContext(prev []Previous) string {
	if len(prev) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Previous stages:")
	for _, p := range prev {
		fmt.Fprintf(&b, "\n## %s", p.Name)
		if len(p.KeyFindings) > 0 {
			b.WriteString("\nKey findings:")
			for _, f := range p.KeyFindings {
				fmt.Fprintf(&b, "\n- %s", f)
			}
		}
		if len(p.Recommendations) > 0 {
			b.WriteString("\nRecommendations:")
			for _, r := range p.Recommendations {
				fmt.Fprintf(&b, "\n- %s", r)
			}
		}
	}
	return b.String()
}

func feedback(notes string) string {
	if notes == "" {
		return ""
	}
	return "A reviewer rejected the previous answer for this stage with the following feedback:\n" + notes
}
