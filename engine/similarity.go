package engine

import "strings"

// Similarity scores how alike two base names are, in [0,1]. Three tiers:
// exact match after normalization is 1.0; substring containment scores the
// length ratio (catches "Product" vs "Product (Gallon)" cheaply, without
// token-set dilution); otherwise the word-set overlap divided by the larger
// set. Symmetric by construction.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shorter, longer := len(na), len(nb)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer)
	}
	return tokenOverlap(strings.Fields(na), strings.Fields(nb))
}

// tokenOverlap is |intersection| / max(|A|, |B|) over word sets.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger)
}
