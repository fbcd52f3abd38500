package quizgen

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/studyquiz/internal/llm"
)

// Question is a validated multiple-choice question.
type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// SchemaError reports a reply that could not be parsed or that yielded no
// usable questions.
type SchemaError struct {
	Msg string
	Err error
}

func (e *SchemaError) Error() string { return e.Msg }

func (e *SchemaError) Unwrap() error { return e.Err }

const (
	msgInvalidJSON  = "Model response was not valid JSON."
	msgNoList       = "Model response did not include a valid questions list."
	msgNoCandidates = "No valid questions were produced by the model."
)

// StripCodeFence removes a surrounding ``` fence and an optional language
// tag on the opening line. Unfenced input is only trimmed.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed, "`")
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}

	// Drop a language tag such as "json" or "JSON" before the payload.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	} else if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	return strings.TrimSpace(body)
}

// ParseReply turns raw model text into validated questions. Invalid
// candidates are dropped, never repaired.
func ParseReply(text string) ([]Question, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(StripCodeFence(text)))
	if err != nil {
		return nil, &SchemaError{Msg: msgInvalidJSON, Err: err}
	}
	if err := llm.ValidateValue(ReplySchema, doc); err != nil {
		return nil, &SchemaError{Msg: msgNoList, Err: err}
	}

	items, _ := doc.(map[string]any)["questions"].([]any)
	out := make([]Question, 0, len(items))
	for _, item := range items {
		if q, ok := candidate(item); ok {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, &SchemaError{Msg: msgNoCandidates}
	}
	return out, nil
}

func candidate(item any) (Question, bool) {
	if llm.ValidateValue(CandidateSchema, item) != nil {
		return Question{}, false
	}
	obj := item.(map[string]any)

	// The schema pattern only knows ASCII whitespace.
	question := strings.TrimSpace(obj["question"].(string))
	if question == "" {
		return Question{}, false
	}

	// 1.0 and 1e0 satisfy "integer" but are not integer literals.
	num, ok := obj["correct_index"].(json.Number)
	if !ok || strings.ContainsAny(num.String(), ".eE") {
		return Question{}, false
	}
	idx, err := num.Int64()
	if err != nil {
		return Question{}, false
	}

	raw := obj["options"].([]any)
	options := make([]string, len(raw))
	for i, o := range raw {
		options[i] = strings.TrimSpace(o.(string))
	}

	explanation, _ := obj["explanation"].(string)

	return Question{
		Question:     question,
		Options:      options,
		CorrectIndex: int(idx),
		Explanation:  strings.TrimSpace(explanation),
	}, true
}
