package quizgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parisReply = `{"questions":[{"question":"What is the capital of France?","options":["Paris","Lyon","Nice","Tours"],"correct_index":0,"explanation":"Paris is the capital."}]}`

func TestParseReply_Valid(t *testing.T) {
	qs, err := ParseReply(parisReply)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, Question{
		Question:     "What is the capital of France?",
		Options:      []string{"Paris", "Lyon", "Nice", "Tours"},
		CorrectIndex: 0,
		Explanation:  "Paris is the capital.",
	}, qs[0])
}

func TestParseReply_FiltersInvalidCandidates(t *testing.T) {
	reply := `{"questions":[
		{"question":" Q1 ","options":[" a ","b","c","d"],"correct_index":1,"explanation":" e1 "},
		{"question":"Q2","options":["a","b","c"],"correct_index":0},
		{"question":"Q3","options":["a","b","c","d"],"correct_index":3,"explanation":42},
		{"question":"   ","options":["a","b","c","d"],"correct_index":0},
		{"question":"\u3000","options":["a","b","c","d"],"correct_index":0},
		{"question":"\u00a0","options":["a","b","c","d"],"correct_index":1},
		{"question":"\u2003\u3000","options":["a","b","c","d"],"correct_index":2},
		{"question":"Q5","options":["a","b","c","d"],"correct_index":2}
	]}`

	qs, err := ParseReply(reply)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, "Q1", qs[0].Question)
	assert.Equal(t, []string{"a", "b", "c", "d"}, qs[0].Options)
	assert.Equal(t, "e1", qs[0].Explanation)

	assert.Equal(t, "Q3", qs[1].Question)
	assert.Equal(t, "", qs[1].Explanation)

	assert.Equal(t, "Q5", qs[2].Question)
	assert.Equal(t, 2, qs[2].CorrectIndex)

	for _, q := range qs {
		assert.Len(t, q.Options, 4)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.LessOrEqual(t, q.CorrectIndex, 3)
	}
}

func TestParseReply_CorrectIndexRules(t *testing.T) {
	tests := []struct {
		name  string
		index string
		keep  bool
	}{
		{"zero", "0", true},
		{"three", "3", true},
		{"negative", "-1", false},
		{"four", "4", false},
		{"float literal", "1.0", false},
		{"exponent", "1e0", false},
		{"string", `"1"`, false},
		{"bool", "true", false},
		{"null", "null", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := `{"questions":[
				{"question":"kept","options":["a","b","c","d"],"correct_index":1},
				{"question":"probe","options":["a","b","c","d"],"correct_index":` + tt.index + `}
			]}`
			qs, err := ParseReply(reply)
			require.NoError(t, err)
			if tt.keep {
				assert.Len(t, qs, 2)
			} else {
				assert.Len(t, qs, 1)
			}
		})
	}
}

func TestParseReply_Errors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		msg   string
	}{
		{"not json", "Sure! Here are your questions.", msgInvalidJSON},
		{"missing list", `{"items":[]}`, msgNoList},
		{"empty list", `{"questions":[]}`, msgNoList},
		{"list is object", `{"questions":{"question":"x"}}`, msgNoList},
		{"top level array", `[{"question":"x"}]`, msgNoList},
		{"all invalid", `{"questions":[{"question":"x"},"junk",7]}`, msgNoCandidates},
		{"only wide spaces", `{"questions":[{"question":"\u3000\u00a0","options":["a","b","c","d"],"correct_index":0}]}`, msgNoCandidates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply(tt.reply)
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.msg, se.Error())
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  {\"a\":1}  ", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper tag", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"no tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestStripCodeFence_Idempotent(t *testing.T) {
	fenced := "```json\n" + parisReply + "\n```"
	once := StripCodeFence(fenced)
	assert.Equal(t, once, StripCodeFence(once))

	plain, err := ParseReply(parisReply)
	require.NoError(t, err)
	wrapped, err := ParseReply(fenced)
	require.NoError(t, err)
	assert.Equal(t, plain, wrapped)
}

func TestParseReply_ToleratesUnknownFields(t *testing.T) {
	reply := strings.Replace(parisReply, `"explanation"`, `"difficulty":"easy","explanation"`, 1)
	qs, err := ParseReply(reply)
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}
