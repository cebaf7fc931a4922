package engine

import (
	"fmt"
	"sort"
)

// Deduplicator resolves competing rows for the same (family, size) slot by
// data completeness. Dropped rows are always logged, never silently
// discarded.
type Deduplicator struct {
	weights CompletenessWeights
	log     *DecisionLog
}

// NewDeduplicator builds a deduplicator with the configured weights.
func NewDeduplicator(cfg Config, log *DecisionLog) *Deduplicator {
	return &Deduplicator{weights: cfg.normalized().Weights, log: log}
}

// Score computes the completeness score of a record: price present and
// positive, SKU non-empty, inventory on hand.
func (d *Deduplicator) Score(rec ProductRecord) int {
	score := 0
	if rec.HasPrice() {
		score += d.weights.HasPrice
	}
	if rec.SKU != "" {
		score += d.weights.HasSKU
	}
	if rec.Inventory > 0 {
		score += d.weights.HasInventory
	}
	return score
}

// Dedupe fills the family's variant slots, keeping exactly one winner per
// normalized size label. Ties go to the primary row (the record whose own
// handle is the family canonical), then to the lowest sourceId for
// determinism. A family whose only surviving slot has no size label is
// relabeled to the Default sentinel so the projector always has a size.
func (d *Deduplicator) Dedupe(family *FamilyGroup) {
	byLabel := make(map[string][]FamilyMember)
	var labels []string
	for _, m := range family.Members {
		label := ""
		if m.Size != nil {
			label = m.Size.Label
		}
		if _, seen := byLabel[label]; !seen {
			labels = append(labels, label)
		}
		byLabel[label] = append(byLabel[label], m)
	}
	sort.Strings(labels)

	family.Slots = family.Slots[:0]
	for _, label := range labels {
		members := byLabel[label]
		sort.SliceStable(members, func(i, j int) bool {
			si, sj := d.Score(members[i].Record), d.Score(members[j].Record)
			if si != sj {
				return si > sj
			}
			pi := members[i].Record.Handle() == family.CanonicalHandle
			pj := members[j].Record.Handle() == family.CanonicalHandle
			if pi != pj {
				return pi
			}
			return members[i].Record.SourceID < members[j].Record.SourceID
		})

		winner := members[0]
		for _, loser := range members[1:] {
			d.log.Append(DecisionVariantDropped, "dedupe",
				[]string{loser.Record.SourceID, winner.Record.SourceID}, float64(d.Score(loser.Record)),
				fmt.Sprintf("duplicate of size %q: score %d lost to %q (score %d)",
					displayLabel(label), d.Score(loser.Record), winner.Record.SourceID, d.Score(winner.Record)))
		}

		family.Slots = append(family.Slots, VariantSlot{
			SizeLabel: label,
			SourceID:  winner.Record.SourceID,
			Record:    winner.Record,
			Size:      winner.Size,
		})
	}

	if len(family.Slots) == 1 && family.Slots[0].SizeLabel == "" {
		family.Slots[0].SizeLabel = DefaultSizeLabel
		d.log.Append(DecisionDefaultSize, "dedupe", []string{family.Slots[0].SourceID}, 0,
			fmt.Sprintf("single sizeless variant of %q relabeled to %q", family.CanonicalHandle, DefaultSizeLabel))
	}
}

func displayLabel(label string) string {
	if label == "" {
		return DefaultSizeLabel
	}
	return label
}
