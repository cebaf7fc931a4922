package engine

import (
	"regexp"
	"strings"
)

// ProductRecord is one input row from a catalog snapshot. Records are
// immutable once ingested: the engine never writes back into them, all
// derived facts live in side tables keyed by SourceID.
type ProductRecord struct {
	SourceID       string  `json:"sourceId"`
	RawTitle       string  `json:"rawTitle"`
	Vendor         string  `json:"vendor"`
	SKU            string  `json:"sku"`
	Price          float64 `json:"price,omitempty"`
	Weight         float64 `json:"weight,omitempty"`
	WeightUnit     string  `json:"weightUnit,omitempty"`
	Inventory      int     `json:"inventory,omitempty"`
	ImageRef       string  `json:"imageRef,omitempty"`
	CategoryHint   string  `json:"categoryHint,omitempty"`
	PlatformHandle string  `json:"platformHandle,omitempty"`
}

// HasPrice reports whether the record carries a usable price.
func (r ProductRecord) HasPrice() bool { return r.Price > 0 }

// Handle returns the record's platform handle, or a slug derived from the
// title when the source system had no handle concept.
func (r ProductRecord) Handle() string {
	if r.PlatformHandle != "" {
		return r.PlatformHandle
	}
	return Slugify(r.RawTitle)
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts free text into a lowercase dash-separated handle.
func Slugify(s string) string {
	s = slugCleanup.ReplaceAllString(Normalize(s), "-")
	return strings.Trim(s, "-")
}

// FamilyKey is the grouping key of the primary pass: records with different
// keys are never merged except by the explicitly logged fallback pass.
type FamilyKey struct {
	Vendor   string `json:"vendor"`
	BaseName string `json:"baseName"`
}

// VariantSlot is one (family, size) pairing and the record that won it.
// After deduplication at most one slot exists per normalized size label.
type VariantSlot struct {
	SizeLabel string        `json:"sizeLabel"`
	SourceID  string        `json:"sourceId"`
	Record    ProductRecord `json:"record"`
	Size      *SizeToken    `json:"size,omitempty"`
}

// FamilyGroup is the set of records believed to be size variants of one
// underlying product. Created during grouping, finalized after
// deduplication; never split again within a run.
type FamilyGroup struct {
	Key             FamilyKey         `json:"key"`
	CanonicalHandle string            `json:"canonicalHandle"`
	CanonicalTitle  string            `json:"canonicalTitle"`
	Members         []FamilyMember    `json:"members"`
	Slots           []VariantSlot     `json:"slots"`
	MergeMap        map[string]string `json:"mergeMap,omitempty"`
}

// FamilyMember pairs a record with its extracted size so later stages do not
// re-run extraction.
type FamilyMember struct {
	Record ProductRecord `json:"record"`
	Base   string        `json:"base"`
	Size   *SizeToken    `json:"size,omitempty"`
}
