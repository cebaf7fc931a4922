package engine

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CanonicalSelector chooses one surviving identity per family and produces
// the remap table for every other member's handle.
type CanonicalSelector struct {
	sizes *SizeExtractor
	log   *DecisionLog
}

// NewCanonicalSelector builds a selector over the given extractor and log.
func NewCanonicalSelector(sizes *SizeExtractor, log *DecisionLog) *CanonicalSelector {
	return &CanonicalSelector{sizes: sizes, log: log}
}

// Select fills the family's canonical handle, canonical title and merge map.
// The tie-break tuple, in order: a handle without an embedded size token
// beats one with (product-1-gallon is a worse canonical than product), then
// the shorter handle, then the one whose record carries a SKU. A stable sort
// on that tuple decides, never insertion order.
func (s *CanonicalSelector) Select(family *FamilyGroup) {
	if len(family.Members) == 0 {
		return
	}

	type candidate struct {
		member  FamilyMember
		handle  string
		hasSize bool
		hasSKU  bool
	}
	cands := make([]candidate, 0, len(family.Members))
	for _, m := range family.Members {
		handle := m.Record.Handle()
		cands = append(cands, candidate{
			member:  m,
			handle:  handle,
			hasSize: s.sizes.Extract(strings.ReplaceAll(handle, "-", " ")) != nil,
			hasSKU:  m.Record.SKU != "",
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.hasSize != b.hasSize {
			return !a.hasSize
		}
		if len(a.handle) != len(b.handle) {
			return len(a.handle) < len(b.handle)
		}
		if a.hasSKU != b.hasSKU {
			return a.hasSKU
		}
		return a.handle < b.handle
	})

	winner := cands[0]
	family.CanonicalHandle = winner.handle
	family.CanonicalTitle = titleCase(winner.member.Base)
	family.MergeMap = make(map[string]string)

	s.log.Append(DecisionCanonicalSelected, "canonical", []string{winner.member.Record.SourceID}, 0,
		fmt.Sprintf("handle %q selected as canonical for family (%s, %s)",
			winner.handle, family.Key.Vendor, family.Key.BaseName))

	for _, c := range cands[1:] {
		if c.handle == winner.handle {
			continue
		}
		family.MergeMap[c.handle] = winner.handle
		s.log.Append(DecisionHandleMerged, "canonical", []string{c.member.Record.SourceID}, 0,
			fmt.Sprintf("handle %q remapped to canonical %q", c.handle, winner.handle))
	}
}

// titleCase capitalizes each word of a normalized base name for display.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
