package score

import (
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/pmezard/go-difflib/difflib"
)

// TextScorer compares two transcripts on a [0,1] scale. It is
// intentionally pessimistic: several similarity estimates are computed
// and the lowest one wins, so a single lenient metric cannot inflate
// the score of a clearly different utterance.
type TextScorer struct{}

// Score returns the text similarity between a reference and a sample
// transcript. A "[" anywhere in either transcript is an in-band marker
// from the recognizer (failure or non-speech annotation) and scores
// zero outright; normalization would otherwise strip it away.
func (TextScorer) Score(ref, sample string) float64 {
	if strings.Contains(ref, "[") || strings.Contains(sample, "[") {
		return 0.0
	}
	a := NormalizeTranscript(ref)
	b := NormalizeTranscript(sample)
	switch {
	case a == "" && b == "":
		return 1.0
	case a == "" || b == "":
		return 0.0
	}
	ra := []rune(a)
	rb := []rune(b)

	// Sequence ratio over individual characters. Chinese has no
	// whitespace word boundaries, so character granularity is the only
	// tokenization that behaves consistently across scripts.
	seq := sequenceRatio(ra, rb)

	dist := matchr.Levenshtein(a, b)
	edit := 1.0 - float64(dist)/float64(max(len(ra), len(rb)))

	return min(seq, edit)
}

// NormalizeTranscript strips everything except CJK ideographs, ASCII
// letters and digits, then lowercases. Punctuation, whitespace and
// recognizer artifacts all disappear so surface formatting can never
// affect the score.
func NormalizeTranscript(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x4e00 && r <= 0x9fa5:
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

func sequenceRatio(a, b []rune) float64 {
	sa := make([]string, len(a))
	for i, r := range a {
		sa[i] = string(r)
	}
	sb := make([]string, len(b))
	for i, r := range b {
		sb[i] = string(r)
	}
	return difflib.NewMatcher(sa, sb).Ratio()
}
