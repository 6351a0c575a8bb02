package prompt

import (
	"argos/pkg/api"
)

const defaultSystem = "You are a senior business analyst. Answer with the sections KEY FINDINGS, RISKS and RECOMMENDATIONS, " +
	"each as a bulleted list, followed by a line SCORE: n/10 rating the option from 1 to 10."

// DefaultStages returns the default ordered analysis stages
func DefaultStages() []api.StageSpec {
	return []api.StageSpec{
		{
			ID:     "situation",
			Name:   "Situation analysis",
			System: defaultSystem,
			Template: "Analyse the current situation for the following question.\n" +
				"Question: @{query}\n" +
				"Constraints:\n@{constraints}\n\n" +
				"@{context}",
		},
		{
			ID:     "options",
			Name:   "Option generation",
			System: defaultSystem,
			Template: "List the options available to answer the following question.\n" +
				"Question: @{query}\n" +
				"Constraints:\n@{constraints}\n\n" +
				"@{context}",
		},
		{
			ID:     "risks",
			Name:   "Risk assessment",
			System: defaultSystem,
			Template: "Assess the risks of the options identified for the following question.\n" +
				"Question: @{query}\n" +
				"Constraints:\n@{constraints}\n\n" +
				"@{context}",
		},
		{
			ID:     "recommendation",
			Name:   "Final recommendation",
			System: defaultSystem,
			Template: "Give a final recommendation for the following question.\n" +
				"Question: @{query}\n" +
				"Constraints:\n@{constraints}\n\n" +
				"@{context}",
		},
	}
}
