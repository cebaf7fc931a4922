package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRunConsolidatesFamilies(t *testing.T) {
	e := New(DefaultConfig(), nil)
	records := []ProductRecord{
		{SourceID: "r1", RawTitle: "Big Bud 1 Gallon", Vendor: "Advanced Nutrients", Price: 89, SKU: "BB-GAL"},
		{SourceID: "r2", RawTitle: "Big Bud 1 Qt", Vendor: "Advanced Nutrients", Price: 29, SKU: "BB-QT"},
		{SourceID: "r3", RawTitle: "Big Bud 4L", Vendor: "Advanced Nutrients", Price: 120, SKU: "BB-4L"},
		{SourceID: "r4", RawTitle: "Tiger Bloom 1L", Vendor: "Fox Farm", Price: 15},
	}

	res, err := e.Run(records, LookupTables{})
	require.NoError(t, err)
	require.Len(t, res.Families, 2)
	assert.NotEmpty(t, res.RunID)

	var bigBud FamilyGroup
	for _, f := range res.Families {
		if f.Key.BaseName == "big bud" {
			bigBud = f
		}
	}
	require.Len(t, bigBud.Slots, 3)
	labels := []string{bigBud.Slots[0].SizeLabel, bigBud.Slots[1].SizeLabel, bigBud.Slots[2].SizeLabel}
	assert.ElementsMatch(t, []string{"1 gal", "1 qt", "4 l"}, labels)

	assert.Equal(t, 4, res.Stats.TotalRecords)
	assert.Equal(t, 2, res.Stats.Families)
	assert.Equal(t, 4, res.Stats.VariantSlots)
	assert.Equal(t, 1, res.Stats.MultiVariantFamilies)
}

func TestEngineRunResolvesMissingAttributes(t *testing.T) {
	e := New(DefaultConfig(), nil)
	records := []ProductRecord{
		{SourceID: "r1", RawTitle: "Root Booster 1L", Vendor: "GH", SKU: "ABC123"},
	}
	tables := LookupTables{PriceBySKU: map[string]float64{"ABC123": 24.99}}

	res, err := e.Run(records, tables)
	require.NoError(t, err)

	price, ok := res.ResolvedValue("r1", AttrPrice)
	require.True(t, ok)
	assert.Equal(t, 24.99, price)

	var priceRes *AttributeResolution
	for i := range res.Resolutions {
		if res.Resolutions[i].Attribute == AttrPrice {
			priceRes = &res.Resolutions[i]
		}
	}
	require.NotNil(t, priceRes)
	assert.Equal(t, TierExactSKU, priceRes.Tier)

	// Resolved values flow into projected rows without mutating the input.
	rows, err := res.Rows(ModelHandleOptions)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 24.99, rows[0].Price)
	assert.Zero(t, records[0].Price)
}

func TestEngineRunSingleSizelessRecord(t *testing.T) {
	e := New(DefaultConfig(), nil)
	res, err := e.Run([]ProductRecord{
		{SourceID: "r1", RawTitle: "Premium Potting Mix", Vendor: "FF", Price: 15},
	}, LookupTables{})
	require.NoError(t, err)

	require.Len(t, res.Families, 1)
	require.Len(t, res.Families[0].Slots, 1)
	assert.Equal(t, DefaultSizeLabel, res.Families[0].Slots[0].SizeLabel)
}

func TestEngineRunDeterministic(t *testing.T) {
	records := []ProductRecord{
		{SourceID: "r1", RawTitle: "Big Bud 1 Gallon", Vendor: "AN", Price: 89},
		{SourceID: "r2", RawTitle: "Tiger Bloom 1L", Vendor: "FF", Price: 15},
		{SourceID: "r3", RawTitle: "Big Bud 1 Qt", Vendor: "AN", Price: 29},
	}
	reversed := []ProductRecord{records[2], records[1], records[0]}

	a, err := New(DefaultConfig(), nil).Run(records, LookupTables{})
	require.NoError(t, err)
	b, err := New(DefaultConfig(), nil).Run(reversed, LookupTables{})
	require.NoError(t, err)

	assert.Equal(t, a.Families, b.Families)

	rowsA, err := a.Rows(ModelParentChild)
	require.NoError(t, err)
	rowsB, err := b.Rows(ModelParentChild)
	require.NoError(t, err)
	assert.Equal(t, rowsA, rowsB)
}

func TestEngineDecisionLogCausalOrderPerSource(t *testing.T) {
	e := New(DefaultConfig(), nil)
	res, err := e.Run([]ProductRecord{
		{SourceID: "r1", RawTitle: "Root Booster 1L", Vendor: "GH", Price: 19.99, SKU: "RB1"},
		{SourceID: "r2", RawTitle: "Root Booster 1L", Vendor: "GH"},
	}, LookupTables{})
	require.NoError(t, err)

	// Entries for one sourceId must come back in the order the stages ran:
	// grouping before dedupe for the dropped row, grouping before the
	// cascade for the winner.
	stageIndex := func(entries []Decision, stage string) int {
		for i, d := range entries {
			if d.Stage == stage {
				return i
			}
		}
		return -1
	}

	dropped := res.Log.ForSource("r2")
	require.NotEmpty(t, dropped)
	for i := 1; i < len(dropped); i++ {
		assert.Greater(t, dropped[i].Seq, dropped[i-1].Seq)
	}
	require.NotEqual(t, -1, stageIndex(dropped, "grouping"))
	require.NotEqual(t, -1, stageIndex(dropped, "dedupe"))
	assert.Less(t, stageIndex(dropped, "grouping"), stageIndex(dropped, "dedupe"))

	winner := res.Log.ForSource("r1")
	require.NotEqual(t, -1, stageIndex(winner, "grouping"))
	require.NotEqual(t, -1, stageIndex(winner, "cascade"))
	assert.Less(t, stageIndex(winner, "grouping"), stageIndex(winner, "cascade"))
}

func TestEngineCheckProjections(t *testing.T) {
	res, err := New(DefaultConfig(), nil).Run([]ProductRecord{
		{SourceID: "r1", RawTitle: "Big Bud 1 Gallon", Vendor: "AN", Price: 89, SKU: "BB-GAL"},
		{SourceID: "r2", RawTitle: "Big Bud 1 Qt", Vendor: "AN", Price: 29, SKU: "BB-QT"},
	}, LookupTables{})
	require.NoError(t, err)
	assert.NoError(t, res.CheckProjections())
}

func TestEngineRerunOnOwnOutputIsStable(t *testing.T) {
	e := New(DefaultConfig(), nil)
	first, err := e.Run([]ProductRecord{
		{SourceID: "r1", RawTitle: "Big Bud 1 Gallon", Vendor: "AN", Price: 89, SKU: "BB-GAL"},
		{SourceID: "r2", RawTitle: "Big Bud 1 Qt", Vendor: "AN", Price: 29, SKU: "BB-QT"},
	}, LookupTables{})
	require.NoError(t, err)

	rows, err := first.Rows(ModelParentChild)
	require.NoError(t, err)

	// Re-ingest the projected children as records: the same families and
	// slots come back.
	var again []ProductRecord
	for _, row := range rows {
		if row.Type != RowChild {
			continue
		}
		again = append(again, ProductRecord{
			SourceID:       row.SourceID,
			RawTitle:       row.Title,
			Vendor:         "AN",
			SKU:            row.SKU,
			Price:          row.Price,
			PlatformHandle: row.Handle,
		})
	}
	second, err := e.Run(again, LookupTables{})
	require.NoError(t, err)
	require.Len(t, second.Families, 1)
	assert.Len(t, second.Families[0].Slots, 2)

	var labels []string
	for _, s := range second.Families[0].Slots {
		labels = append(labels, s.SizeLabel)
	}
	assert.ElementsMatch(t, []string{"1 gal", "1 qt"}, labels)
}
