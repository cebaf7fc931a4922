package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Big Bud BLOOM", "big bud bloom"},
		{"collapses whitespace", "  Tiger   Bloom \t 1L ", "tiger bloom 1l"},
		{"decodes named entities", "Ben &amp; Jerry&#39;s", "ben & jerry's"},
		{"decodes numeric entities", "caf&#233;", "cafe"},
		{"decodes double-escaped entities", "Ben &amp;amp; Jerry 1L", "ben & jerry 1l"},
		{"strips diacritics", "Crème Brûlée Solución", "creme brulee solucion"},
		{"folds curly quotes", "Nature’s “Best”", `nature's "best"`},
		{"folds dashes", "pH Up – Concentrate — 1L", "ph up - concentrate - 1l"},
		{"drops trademark marks", "Tiger Bloom® Extra™", "tiger bloom extra"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Big Bud&reg; 1 Gallon",
		"Crème de la Crème — 500ml",
		"  ALREADY   clean text ",
		"",
		"plain",
		"Ben &amp;amp; Jerry 1L",
		"Fish &amp;amp;amp; Kelp Blend",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "big-bud-1-gallon", Slugify("Big Bud 1 Gallon"))
	assert.Equal(t, "tiger-bloom", Slugify("  Tiger  Bloom!  "))
	assert.Equal(t, "ph-up-1l", Slugify("pH Up – 1L"))
}
