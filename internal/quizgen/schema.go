package quizgen

import "github.com/abhisek/studyquiz/internal/llm"

// ReplySchema is the envelope a model reply must match before individual
// candidates are looked at.
var ReplySchema = &llm.Schema{
	Name:        "study-question-reply",
	Description: "Top-level reply holding a non-empty list of candidate questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
			},
		},
		"required": []any{"questions"},
	},
}

// CandidateSchema describes one acceptable question. Unknown fields are
// tolerated and explanation is optional.
var CandidateSchema = &llm.Schema{
	Name:        "study-question",
	Description: "A single multiple-choice question with exactly four options",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"pattern":     `\S`,
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly four answer options",
			},
			"correct_index": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "Zero-based index of the correct option",
			},
		},
		"required": []any{"question", "options", "correct_index"},
	},
}
