package bot

import (
	"unicode"
	"unicode/utf8"
)

const (
	densityCheckLength = 12
	minAlnumDensity    = 0.4
)

// passesQualityFilters rejects text not worth an AI turn: no alphanumeric
// content at all, or long strings that are mostly symbols and punctuation.
func passesQualityFilters(text string) bool {
	alnum := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum == 0 {
		return false
	}

	length := utf8.RuneCountInString(text)
	if length > densityCheckLength && float64(alnum)/float64(length) < minAlnumDensity {
		return false
	}
	return true
}
