// Package similarity decides whether two phrase texts denote the same
// learning item. Matching is purely lexical: texts are normalized and
// compared with character-trigram Jaccard similarity, which tolerates case,
// whitespace, article, and minor spelling variation without a full
// edit-distance computation.
package similarity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the similarity score at or above which two phrases are
// treated as duplicates.
const DefaultThreshold = 0.85

// German articles stripped from the front of a phrase before comparison.
// At most one leading article token is removed.
var articles = map[string]bool{
	"der": true, "die": true, "das": true,
	"ein": true, "eine": true, "einen": true,
	"einem": true, "einer": true, "eines": true,
}

// Normalize returns the canonical comparison form of a phrase: NFC-composed,
// lowercased, whitespace-collapsed, with a single leading German article
// dropped. The result is used only for matching and is never stored.
func Normalize(text string) string {
	s := norm.NFC.String(text)
	s = strings.ToLower(s)

	fields := strings.Fields(s)
	if len(fields) > 1 && articles[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// trigrams returns the set of overlapping 3-character substrings of s padded
// with a leading and trailing space. Operates on runes so umlauts and other
// multi-byte characters form whole trigram elements.
func trigrams(s string) map[string]bool {
	runes := []rune(" " + s + " ")
	if len(runes) < 3 {
		return nil
	}
	set := make(map[string]bool, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = true
	}
	return set
}

// Jaccard computes the trigram Jaccard index of two normalized strings,
// in [0, 1]. If either side yields no trigrams the score degenerates to
// exact string equality.
func Jaccard(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		if a == b {
			return 1.0
		}
		return 0.0
	}

	intersection := 0
	for t := range ta {
		if tb[t] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// Score normalizes both texts and returns their Jaccard similarity.
func Score(a, b string) float64 {
	return Jaccard(Normalize(a), Normalize(b))
}
