package scoring

import (
	"math"
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Score compares the problem text against a transcript and returns a
// similarity score on a 0-100 scale, rounded to two decimals. The score is
// 1 - d/maxLen where d is the Levenshtein distance between the normalized
// strings.
func Score(original, transcribed string) float64 {
	original = Normalize(original)
	transcribed = Normalize(transcribed)

	distance := levenshtein(original, transcribed)

	maxLen := math.Max(float64(len(original)), float64(len(transcribed)))
	if maxLen == 0 {
		return 0.0
	}

	similarity := (1.0 - float64(distance)/maxLen) * 100.0
	if similarity < 0 {
		similarity = 0
	} else if similarity > 100 {
		similarity = 100
	}

	return math.Round(similarity*100) / 100
}

// Normalize lowercases, trims, and collapses runs of whitespace so that
// casing and spacing differences do not count against the speaker.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSpace(text)
	return whitespace.ReplaceAllString(text, " ")
}

func levenshtein(s1, s2 string) int {
	len1 := len(s1)
	len2 := len(s2)

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
