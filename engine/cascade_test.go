package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(tables LookupTables) (*Resolver, *DecisionLog) {
	log := NewDecisionLog()
	return NewResolver(DefaultConfig(), tables, log), log
}

func TestResolvePriceFromSelf(t *testing.T) {
	r, _ := newTestResolver(LookupTables{})
	res := r.Resolve(ProductRecord{SourceID: "r1", RawTitle: "Tiger Bloom 1L", Price: 12.5}, nil, AttrPrice)

	assert.Equal(t, TierSelf, res.Tier)
	assert.Equal(t, 12.5, res.Value)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestResolvePriceBySKU(t *testing.T) {
	r, log := newTestResolver(LookupTables{
		PriceBySKU: map[string]float64{"ABC123": 24.99},
	})
	rec := ProductRecord{SourceID: "r1", RawTitle: "Root Booster 1L", SKU: "ABC123"}
	res := r.Resolve(rec, nil, AttrPrice)

	assert.Equal(t, TierExactSKU, res.Tier)
	assert.Equal(t, 24.99, res.Value)
	assert.Equal(t, 0.95, res.Confidence)
	assert.Len(t, log.ByKind(DecisionAttributeResolved), 1)
}

func TestResolveExactBeatsFuzzy(t *testing.T) {
	// An exact name hit must win even when a fuzzy source would also match:
	// the cascade stops at the first (cheaper, more certain) tier.
	r, _ := newTestResolver(LookupTables{
		ImageByName: map[string]string{"tiger bloom 1l": "tiger-bloom.jpg"},
		ImageFiles:  []string{"tiger_bloom_1l_hero.jpg"},
	})
	res := r.Resolve(ProductRecord{SourceID: "r1", RawTitle: "Tiger Bloom 1L"}, nil, AttrImage)

	assert.Equal(t, TierExactName, res.Tier)
	assert.Equal(t, "tiger-bloom.jpg", res.Value)
}

func TestResolveFuzzyImageOverlap(t *testing.T) {
	r, _ := newTestResolver(LookupTables{
		ImageFiles: []string{"tiger_bloom_quart.jpg", "cal_mag_gallon.jpg"},
	})
	res := r.Resolve(ProductRecord{SourceID: "r1", RawTitle: "Tiger Bloom Quart"}, nil, AttrImage)

	assert.Equal(t, TierFuzzyName, res.Tier)
	assert.Equal(t, "tiger_bloom_quart.jpg", res.Value)
	assert.Equal(t, 0.6, res.Confidence)
}

func TestResolveFuzzyImageBelowMinimum(t *testing.T) {
	cfg := DefaultConfig()
	r := NewResolver(cfg, LookupTables{
		ImageFiles: []string{"unrelated_product_shot.jpg"},
	}, NewDecisionLog())
	res := r.Resolve(ProductRecord{SourceID: "r1", RawTitle: "Tiger Bloom Quart"}, nil, AttrImage)

	assert.Equal(t, TierUnresolved, res.Tier)
	assert.Nil(t, res.Value)
}

func TestResolveParentInheritance(t *testing.T) {
	family := &FamilyGroup{Members: []FamilyMember{
		{Record: ProductRecord{SourceID: "r1", RawTitle: "Big Bud 1 Gallon", Price: 89}},
		{Record: ProductRecord{SourceID: "r2", RawTitle: "Big Bud 1 Qt"}},
	}}
	r, _ := newTestResolver(LookupTables{})
	res := r.Resolve(family.Members[1].Record, family, AttrPrice)

	assert.Equal(t, TierParent, res.Tier)
	assert.Equal(t, 89.0, res.Value)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestResolvePlaceholderImage(t *testing.T) {
	r, _ := newTestResolver(LookupTables{
		Placeholders: map[string]string{"nutrients": "placeholder-nutrients.png"},
	})
	rec := ProductRecord{SourceID: "r1", RawTitle: "Mystery Additive", CategoryHint: "Nutrients"}
	res := r.Resolve(rec, nil, AttrImage)

	assert.Equal(t, TierPlaceholder, res.Tier)
	assert.Equal(t, "placeholder-nutrients.png", res.Value)
}

func TestResolveUnresolvedIsTerminalNotError(t *testing.T) {
	r, log := newTestResolver(LookupTables{})
	res := r.Resolve(ProductRecord{SourceID: "r1", RawTitle: "Mystery Additive"}, nil, AttrPrice)

	assert.Equal(t, TierUnresolved, res.Tier)
	assert.Nil(t, res.Value)
	assert.False(t, res.Resolved())
	assert.Len(t, log.ByKind(DecisionAttributeMissing), 1)
}

func TestResolveDeterministic(t *testing.T) {
	tables := LookupTables{
		PriceBySKU:  map[string]float64{"ABC": 10},
		PriceByName: map[string]float64{"root booster 1l": 11},
	}
	rec := ProductRecord{SourceID: "r1", RawTitle: "Root Booster 1L", SKU: "ABC"}

	first, _ := newTestResolver(tables)
	second, _ := newTestResolver(tables)
	a := first.Resolve(rec, nil, AttrPrice)
	b := second.Resolve(rec, nil, AttrPrice)

	assert.Equal(t, a.Tier, b.Tier)
	assert.Equal(t, a.Value, b.Value)
	assert.Equal(t, TierExactSKU, a.Tier, "sku match outranks name match")
}

func TestResolveAttemptsAreAppendOnly(t *testing.T) {
	r, _ := newTestResolver(LookupTables{PriceByName: map[string]float64{"root booster 1l": 11}})
	rec := ProductRecord{SourceID: "r1", RawTitle: "Root Booster 1L", SKU: "ABC"}

	r.Resolve(rec, nil, AttrPrice)
	attempts := r.Attempts()
	// self miss, sku miss, name hit: every probe audited.
	require.Len(t, attempts, 3)
	assert.False(t, attempts[0].Hit)
	assert.False(t, attempts[1].Hit)
	assert.True(t, attempts[2].Hit)

	r.Resolve(rec, nil, AttrPrice)
	assert.Len(t, r.Attempts(), 6, "re-resolving appends, never overwrites")
}

func TestFilenameTokens(t *testing.T) {
	assert.Equal(t, []string{"tiger", "bloom", "quart"}, filenameTokens("images/Tiger_Bloom-Quart.JPG"))
	assert.Equal(t, []string{"cal", "mag", "2"}, filenameTokens("cal-mag.2.png"))
}
