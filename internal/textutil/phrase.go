package textutil

import (
	"math"
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into letter and digit runs.
// Accented characters count as letters, so phrases keep their words in
// any alphabet.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Fingerprint is a word-frequency vector over one phrase.
type Fingerprint struct {
	counts map[string]float64
	norm   float64
}

// NewFingerprint builds a fingerprint from phrase text. Returns nil when
// the text holds no words.
func NewFingerprint(text string) *Fingerprint {
	words := Tokenize(text)
	if len(words) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(words))
	for _, word := range words {
		counts[word]++
	}
	var sum float64
	for _, count := range counts {
		sum += count * count
	}
	return &Fingerprint{counts: counts, norm: math.Sqrt(sum)}
}

// Similarity returns the cosine similarity between two fingerprints in
// [0, 1]. Nil fingerprints compare as zero.
func (f *Fingerprint) Similarity(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	var dot float64
	for word, count := range f.counts {
		if otherCount, ok := other.counts[word]; ok {
			dot += count * otherCount
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (f.norm * other.norm)
}
