package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Tiger Bloom", "tiger bloom"))
	assert.Equal(t, 1.0, Similarity("Crème Brûlée", "creme brulee"))
}

func TestSimilaritySubstring(t *testing.T) {
	// "product" inside "product (gallon)" scores the length ratio, without
	// token-set dilution.
	score := Similarity("Product", "Product (Gallon)")
	assert.InDelta(t, 7.0/16.0, score, 0.001)

	score = Similarity("tiger bloom", "tiger bloom dry")
	assert.InDelta(t, 11.0/15.0, score, 0.001)
	assert.Less(t, score, 0.75, "tiger bloom vs tiger bloom dry stays below the merge threshold")
}

func TestSimilarityTokenOverlap(t *testing.T) {
	// No containment: word-set overlap over the larger set.
	score := Similarity("grow big liquid", "big bloom liquid")
	assert.InDelta(t, 2.0/3.0, score, 0.001)

	assert.Equal(t, 0.0, Similarity("tiger bloom", "cal mag"))
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Tiger Bloom", "Tiger Bloom Dry"},
		{"Product", "Product (Gallon)"},
		{"grow big", "big bloom"},
		{"", "anything"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity(%q, %q) must be symmetric", p[0], p[1])
	}
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "tiger bloom"))
}
