package product

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	gramSize = 3
	gramFPR  = 0.01
)

// searchEntry holds a product's lowercased search text and a bloom filter
// of its rune trigrams. Every substring of length >= gramSize has all of its
// trigrams in the filter, so a missing trigram rules the product out without
// scanning the text.
type searchEntry struct {
	text  string
	grams *bloom.BloomFilter
}

func newSearchEntry(text string) searchEntry {
	grams := trigrams(text)
	n := uint(len(grams))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, gramFPR)
	for _, g := range grams {
		filter.AddString(g)
	}
	return searchEntry{text: text, grams: filter}
}

// contains reports whether the lowercased query q occurs in the entry.
func (e searchEntry) contains(q string) bool {
	for _, g := range trigrams(q) {
		if !e.grams.TestString(g) {
			return false
		}
	}
	return strings.Contains(e.text, q)
}

// trigrams returns every run of gramSize consecutive runes in s.
func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < gramSize {
		return nil
	}
	out := make([]string, 0, len(runes)-gramSize+1)
	for i := 0; i+gramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+gramSize]))
	}
	return out
}
