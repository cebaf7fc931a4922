package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TargetModel selects which platform's physical row layout to emit.
type TargetModel string

const (
	// ModelParentChild emits an explicit parent row plus one child row per
	// variant, children referencing the parent by handle.
	ModelParentChild TargetModel = "parent-child"
	// ModelHandleOptions emits one primary row carrying all family-level
	// fields plus one option row per remaining variant.
	ModelHandleOptions TargetModel = "handle-options"
)

// RowType tags the role a projected row plays in its target model.
type RowType string

const (
	RowParent  RowType = "parent"
	RowChild   RowType = "child"
	RowPrimary RowType = "primary"
	RowOption  RowType = "option"
)

// Row is one physical output row in either target model. Variant-level
// fields (SKU, price, weight, image) always live on the row that owns the
// variant; family-level fields live wherever the model puts them.
type Row struct {
	Type         RowType `json:"type"`
	Handle       string  `json:"handle,omitempty"`
	ParentHandle string  `json:"parentHandle,omitempty"`
	Title        string  `json:"title,omitempty"`
	Vendor       string  `json:"vendor,omitempty"`
	Category     string  `json:"category,omitempty"`
	OptionName   string  `json:"optionName,omitempty"`
	OptionValue  string  `json:"optionValue,omitempty"`
	SourceID     string  `json:"sourceId,omitempty"`
	SKU          string  `json:"sku,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Weight       float64 `json:"weight,omitempty"`
	WeightUnit   string  `json:"weightUnit,omitempty"`
	Image        string  `json:"image,omitempty"`
}

// ErrProjectionMismatch means the two target models would carry different
// variant-level values for the same slot. That is a logic bug, never a data
// problem, and it must surface loudly instead of emitting inconsistent rows.
var ErrProjectionMismatch = errors.New("projection variant values differ between target models")

const sizeOptionName = "Size"

// Project converts a finalized family into the target model's rows. The
// projector only reshapes which row each field lives on; it never invents or
// drops variant data.
func Project(family FamilyGroup, model TargetModel) ([]Row, error) {
	if len(family.Slots) == 0 {
		return nil, fmt.Errorf("family %q has no variant slots; run dedupe before projecting", family.CanonicalHandle)
	}

	slots := make([]VariantSlot, len(family.Slots))
	copy(slots, family.Slots)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].SizeLabel < slots[j].SizeLabel })

	switch model {
	case ModelParentChild:
		return projectParentChild(family, slots), nil
	case ModelHandleOptions:
		return projectHandleOptions(family, slots), nil
	default:
		return nil, fmt.Errorf("unknown target model %q", model)
	}
}

func projectParentChild(family FamilyGroup, slots []VariantSlot) []Row {
	rows := make([]Row, 0, len(slots)+1)
	rows = append(rows, Row{
		Type:     RowParent,
		Handle:   family.CanonicalHandle,
		Title:    family.CanonicalTitle,
		Vendor:   family.Key.Vendor,
		Category: familyCategory(family),
	})
	for _, slot := range slots {
		rows = append(rows, Row{
			Type:         RowChild,
			Handle:       family.CanonicalHandle + "-" + Slugify(displayLabel(slot.SizeLabel)),
			ParentHandle: family.CanonicalHandle,
			Title:        strings.TrimSpace(family.CanonicalTitle + " " + displayLabel(slot.SizeLabel)),
			OptionName:   sizeOptionName,
			OptionValue:  displayLabel(slot.SizeLabel),
			SourceID:     slot.SourceID,
			SKU:          slot.Record.SKU,
			Price:        slot.Record.Price,
			Weight:       slot.Record.Weight,
			WeightUnit:   slot.Record.WeightUnit,
			Image:        slot.Record.ImageRef,
		})
	}
	return rows
}

func projectHandleOptions(family FamilyGroup, slots []VariantSlot) []Row {
	rows := make([]Row, 0, len(slots))
	for i, slot := range slots {
		row := Row{
			Type:        RowOption,
			OptionName:  sizeOptionName,
			OptionValue: displayLabel(slot.SizeLabel),
			SourceID:    slot.SourceID,
			SKU:         slot.Record.SKU,
			Price:       slot.Record.Price,
			Weight:      slot.Record.Weight,
			WeightUnit:  slot.Record.WeightUnit,
			Image:       slot.Record.ImageRef,
		}
		if i == 0 {
			row.Type = RowPrimary
			row.Handle = family.CanonicalHandle
			row.Title = family.CanonicalTitle
			row.Vendor = family.Key.Vendor
			row.Category = familyCategory(family)
		}
		rows = append(rows, row)
	}
	return rows
}

// ProjectBoth projects a family into both target models and verifies the
// core consistency invariant: the multiset of (sku, price, weight) triples
// must be identical between the two projections.
func ProjectBoth(family FamilyGroup) (parentChild, handleOptions []Row, err error) {
	parentChild, err = Project(family, ModelParentChild)
	if err != nil {
		return nil, nil, err
	}
	handleOptions, err = Project(family, ModelHandleOptions)
	if err != nil {
		return nil, nil, err
	}
	if !sameVariantTriples(parentChild, handleOptions) {
		return nil, nil, fmt.Errorf("family %q: %w", family.CanonicalHandle, ErrProjectionMismatch)
	}
	return parentChild, handleOptions, nil
}

func sameVariantTriples(a, b []Row) bool {
	return variantTripleKey(a) == variantTripleKey(b)
}

// variantTripleKey builds an order-independent fingerprint of the variant
// level values carried by a projection's rows.
func variantTripleKey(rows []Row) string {
	var triples []string
	for _, r := range rows {
		if r.Type == RowParent {
			continue
		}
		triples = append(triples, fmt.Sprintf("%s|%.4f|%.4f", r.SKU, r.Price, r.Weight))
	}
	sort.Strings(triples)
	return strings.Join(triples, "\n")
}

func familyCategory(family FamilyGroup) string {
	for _, slot := range family.Slots {
		if slot.Record.CategoryHint != "" {
			return slot.Record.CategoryHint
		}
	}
	return ""
}
