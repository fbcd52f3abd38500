package quizgen

import (
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"empty", "", LanguageUnknown},
		{"whitespace", " \n\t", LanguageUnknown},
		{"digits only", "1234 5678", LanguageUnknown},
		{"english", "hello", LanguageEnglish},
		{"chinese dominant", "光合作用是植物利用光能合成有机物ab", LanguageChinese},
		{"tie goes to chinese", "中文ab", LanguageChinese},
		{"latin dominant", "DNA 双螺旋 structure", LanguageEnglish},
		{"accented letters are not counted", "éàü 中", LanguageChinese},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(7, LanguageUnknown)

	for _, want := range []string{
		"Create exactly 7 questions.",
		"- Output ONLY valid JSON.",
		`{"questions": [{"question": string, "options": [string, string, string, string], "correct_index": number, "explanation": string}]}`,
		"- Every question must have exactly 4 options.",
		"- correct_index must be 0, 1, 2, or 3.",
		"- Exactly one option is correct.",
		"- Keep explanation concise.",
		"- Do NOT translate to English unless the source notes are English.",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "Language hint") {
		t.Error("unknown language should not add a hint line")
	}
	if strings.Contains(p, `\n`) {
		t.Error("prompt contains escaped newlines")
	}
}

func TestBuildPrompt_LanguageHints(t *testing.T) {
	zh := BuildPrompt(3, LanguageChinese)
	if !strings.HasSuffix(zh, "- Language hint: source notes are primarily Chinese, so output Chinese.\n") {
		t.Errorf("missing Chinese hint:\n%s", zh)
	}
	en := BuildPrompt(3, LanguageEnglish)
	if !strings.HasSuffix(en, "- Language hint: source notes are primarily English, so output English.\n") {
		t.Errorf("missing English hint:\n%s", en)
	}
	if BuildPrompt(3, LanguageEnglish) != en {
		t.Error("prompt is not deterministic")
	}
}
