package quizgen

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message on every generation call.
const SystemPrompt = "You are a strict JSON generator for study questions."

// BuildPrompt returns the instruction text for a batch of count questions.
func BuildPrompt(count int, lang Language) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate multiple-choice study questions from the provided notes. Create exactly %d questions.\n\n", count)
	b.WriteString("Requirements:\n")
	b.WriteString("- Output ONLY valid JSON.\n")
	b.WriteString("- Use this exact JSON schema:\n")
	b.WriteString(`{"questions": [{"question": string, "options": [string, string, string, string], "correct_index": number, "explanation": string}]}` + "\n")
	b.WriteString("- Every question must have exactly 4 options.\n")
	b.WriteString("- correct_index must be 0, 1, 2, or 3.\n")
	b.WriteString("- Exactly one option is correct.\n")
	b.WriteString("- Keep explanation concise.\n")
	b.WriteString("- Use the same language as the source notes for question, options, and explanation.\n")
	b.WriteString("- Do NOT translate to English unless the source notes are English.\n")

	switch lang {
	case LanguageChinese:
		b.WriteString("- Language hint: source notes are primarily Chinese, so output Chinese.\n")
	case LanguageEnglish:
		b.WriteString("- Language hint: source notes are primarily English, so output English.\n")
	}

	return b.String()
}
