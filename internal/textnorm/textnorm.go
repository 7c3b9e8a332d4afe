// Package textnorm canonicalizes answer strings for comparison and provides
// the edit-distance similarity measures the evaluator grades with.
package textnorm

import (
	"strings"
	"unicode"
)

// Canonical similarity thresholds used across grading rules.
const (
	NearExactThreshold = 0.9
	CloseThreshold     = 0.7
)

// Uzbek Latin orthography writes oʻ and gʻ with a variety of apostrophe-like
// code points depending on keyboard. All of them canonicalize to U+0027.
var apostropheVariants = map[rune]rune{
	'ʻ': '\'', // ʻ modifier letter turned comma (official)
	'ʼ': '\'', // ʼ modifier letter apostrophe
	'‘': '\'', // ‘ left single quotation mark
	'’': '\'', // ’ right single quotation mark
	'`': '\'', // ` grave accent
	'´': '\'', // ´ acute accent
}

// Normalize lowercases, trims, collapses internal whitespace, maps
// locale-specific grapheme variants to canonical forms, and strips all
// punctuation except the apostrophe. Deterministic and Unicode-safe.
func Normalize(s, locale string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if mapped, ok := apostropheVariants[r]; ok && locale != "en" {
			r = mapped
		}
		switch {
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			b.WriteRune(r)
			lastSpace = false
		default:
			// punctuation dropped
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// EditDistance returns the Levenshtein distance between a and b, computed
// over runes.
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity is 1 - distance/max(len) for nonempty inputs, 1 when both are
// empty, and 0 when exactly one is empty. Symmetric, and equal strings
// always score 1.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1 - float64(EditDistance(a, b))/float64(maxLen)
}

// WordOverlap returns the fraction of reference words present in the
// candidate. Both inputs are expected to be normalized already. Empty
// reference yields 0.
func WordOverlap(candidate, reference string) float64 {
	refWords := strings.Fields(reference)
	if len(refWords) == 0 {
		return 0
	}
	candSet := make(map[string]bool)
	for _, w := range strings.Fields(candidate) {
		candSet[w] = true
	}
	matched := 0
	for _, w := range refWords {
		if candSet[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(refWords))
}
