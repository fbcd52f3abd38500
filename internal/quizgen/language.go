package quizgen

import "strings"

// Language is a coarse hint about the language of the source notes.
type Language string

const (
	LanguageChinese Language = "chinese"
	LanguageEnglish Language = "english"
	LanguageUnknown Language = "unknown"
)

// DetectLanguage compares the number of CJK unified ideographs against
// ASCII letters. Ties with at least one ideograph go to Chinese.
func DetectLanguage(text string) Language {
	text = strings.TrimSpace(text)
	if text == "" {
		return LanguageUnknown
	}

	var cjk, latin int
	for _, r := range text {
		switch {
		case r >= '\u4e00' && r <= '\u9fff':
			cjk++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin++
		}
	}

	switch {
	case cjk > 0 && cjk >= latin:
		return LanguageChinese
	case latin > 0:
		return LanguageEnglish
	}
	return LanguageUnknown
}
