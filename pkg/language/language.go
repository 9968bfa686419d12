// Package language guesses the language of batch text so prompts can ask for a
// reply in the same language.
package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minChars is the shortest text worth running detection on.
const minChars = 20

var supported = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
}

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

func get() lingua.LanguageDetector {
	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(supported...).
			WithMinimumRelativeDistance(0.1).
			Build()
	})
	return detector
}

// Detect returns the language name (e.g. "Spanish") or "" when unsure.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minChars {
		return ""
	}
	lang, ok := get().DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return lang.String()
}
