package interview

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const questionMarker = ">"

var (
	thinkBlock   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	decimalToken = regexp.MustCompile(`\d*\.?\d+`)
)

// ExtractQuestion strips reasoning blocks from a generator response and returns the question
// that follows the marker, cut after the first sentence terminator.
func ExtractQuestion(raw string) string {
	text := thinkBlock.ReplaceAllString(raw, "")
	if idx := strings.Index(text, questionMarker); idx >= 0 {
		text = text[idx+len(questionMarker):]
	}
	text = strings.TrimSpace(text)

	if idx := strings.IndexAny(text, ".?!。？！"); idx >= 0 {
		_, size := utf8.DecodeRuneInString(text[idx:])
		text = text[:idx+size]
	}
	return strings.TrimSpace(text)
}

// ExtractScores maps the decimal numbers found in raw, in order, onto dims. Dimensions without
// a number are left out of the result so the aggregator applies its neutral fallback.
func ExtractScores(raw string, dims []string) map[string]float64 {
	tokens := decimalToken.FindAllString(raw, -1)
	out := make(map[string]float64, len(dims))
	for i, name := range dims {
		if i >= len(tokens) {
			break
		}
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out
}
