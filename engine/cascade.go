package engine

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Attribute names the record fields the cascade can resolve.
type Attribute string

const (
	AttrPrice  Attribute = "price"
	AttrWeight Attribute = "weight"
	AttrBrand  Attribute = "brand"
	AttrImage  Attribute = "image"
)

// Tier identifies which rung of the fallback ladder supplied a value. The
// order is a design decision, not arbitrary: cheap certain sources come
// before expensive uncertain ones, and a fuzzy match may never override an
// exact one.
type Tier string

const (
	TierSelf        Tier = "self"
	TierExactSKU    Tier = "exactSkuMatch"
	TierExactName   Tier = "exactNameMatch"
	TierFuzzyName   Tier = "fuzzyNameMatch"
	TierParent      Tier = "parentInheritance"
	TierPlaceholder Tier = "categoryPlaceholder"
	TierUnresolved  Tier = "unresolved"
)

// tierConfidence is fixed per tier so two runs over unchanged tables always
// report the same confidence.
var tierConfidence = map[Tier]float64{
	TierSelf:        1.0,
	TierExactSKU:    0.95,
	TierExactName:   0.85,
	TierFuzzyName:   0.6,
	TierParent:      0.5,
	TierPlaceholder: 0.3,
	TierUnresolved:  0,
}

// AttributeResolution is the outcome of one cascade walk: the value, the
// tier that supplied it, and the source's own account of the match.
type AttributeResolution struct {
	SourceID   string    `json:"sourceId"`
	Attribute  Attribute `json:"attribute"`
	Value      any       `json:"value"`
	Tier       Tier      `json:"sourceTier"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Detail     string    `json:"detail,omitempty"`
}

// Resolved reports whether the cascade found a value at any tier.
func (r AttributeResolution) Resolved() bool { return r.Tier != TierUnresolved }

// ResolutionAttempt is one audited probe of one source. Attempts are
// append-only: a later, better resolution supersedes but never erases them.
type ResolutionAttempt struct {
	SourceID  string    `json:"sourceId"`
	Attribute Attribute `json:"attribute"`
	Tier      Tier      `json:"tier"`
	Source    string    `json:"source"`
	Hit       bool      `json:"hit"`
	Value     any       `json:"value,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// LookupTables are the external data sources the cascade walks. They are
// loaded by collaborators (see the store package) before the core runs;
// the cascade itself performs no I/O. Keys are pre-normalized with
// Normalize; SKU keys are verbatim.
type LookupTables struct {
	PriceBySKU   map[string]float64
	PriceByName  map[string]float64
	WeightBySKU  map[string]float64
	WeightByName map[string]float64
	BrandByName  map[string]string
	ImageByName  map[string]string
	ImageFiles   []string
	Placeholders map[string]string
}

// cascadeStep is one rung: a named source at a tier that either yields a
// value or passes.
type cascadeStep struct {
	tier   Tier
	source string
	lookup func(rec ProductRecord, family *FamilyGroup) (any, string, bool)
}

// Resolver walks per-attribute fallback cascades over injected lookup
// tables, recording provenance for every probe.
type Resolver struct {
	cfg      Config
	tables   LookupTables
	log      *DecisionLog
	attempts []ResolutionAttempt
}

// NewResolver builds a resolver over the given lookup tables.
func NewResolver(cfg Config, tables LookupTables, log *DecisionLog) *Resolver {
	return &Resolver{cfg: cfg.normalized(), tables: tables, log: log}
}

// Attempts returns the full append-only provenance log.
func (r *Resolver) Attempts() []ResolutionAttempt {
	out := make([]ResolutionAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

// Resolve walks the cascade for one attribute of one record. Lookup tables
// are tried in tier order and the walk stops at the first hit. A fully
// exhausted cascade is not an error: the caller gets a terminal resolution
// with the unresolved tier and a nil value, and decides policy itself.
func (r *Resolver) Resolve(rec ProductRecord, family *FamilyGroup, attr Attribute) AttributeResolution {
	for _, step := range r.steps(attr) {
		value, detail, ok := step.lookup(rec, family)
		r.attempts = append(r.attempts, ResolutionAttempt{
			SourceID:  rec.SourceID,
			Attribute: attr,
			Tier:      step.tier,
			Source:    step.source,
			Hit:       ok,
			Value:     value,
			Detail:    detail,
		})
		if !ok {
			continue
		}
		res := AttributeResolution{
			SourceID:   rec.SourceID,
			Attribute:  attr,
			Value:      value,
			Tier:       step.tier,
			Confidence: tierConfidence[step.tier],
			Source:     step.source,
			Detail:     detail,
		}
		if step.tier != TierSelf {
			r.log.Append(DecisionAttributeResolved, "cascade", []string{rec.SourceID}, res.Confidence,
				fmt.Sprintf("%s resolved from %s (%s): %s", attr, step.source, step.tier, detail))
		}
		return res
	}

	r.log.Append(DecisionAttributeMissing, "cascade", []string{rec.SourceID}, 0,
		fmt.Sprintf("%s unresolved after exhausting all sources", attr))
	return AttributeResolution{
		SourceID:  rec.SourceID,
		Attribute: attr,
		Tier:      TierUnresolved,
		Source:    "none",
	}
}

func (r *Resolver) steps(attr Attribute) []cascadeStep {
	switch attr {
	case AttrPrice:
		return []cascadeStep{
			{TierSelf, "record", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.HasPrice() {
					return rec.Price, "price present on record", true
				}
				return nil, "", false
			}},
			{TierExactSKU, "price book", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.SKU == "" {
					return nil, "record has no sku", false
				}
				if price, ok := r.tables.PriceBySKU[rec.SKU]; ok {
					return price, fmt.Sprintf("sku %q found in price book", rec.SKU), true
				}
				return nil, "", false
			}},
			{TierExactName, "price book", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				key := Normalize(rec.RawTitle)
				if price, ok := r.tables.PriceByName[key]; ok {
					return price, fmt.Sprintf("normalized title %q found in price book", key), true
				}
				return nil, "", false
			}},
			{TierParent, "family siblings", func(rec ProductRecord, family *FamilyGroup) (any, string, bool) {
				return inheritFloat(family, rec.SourceID, func(sib ProductRecord) (float64, bool) {
					return sib.Price, sib.HasPrice()
				})
			}},
		}
	case AttrWeight:
		return []cascadeStep{
			{TierSelf, "record", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.Weight > 0 {
					return rec.Weight, "weight present on record", true
				}
				return nil, "", false
			}},
			{TierExactSKU, "weight book", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.SKU == "" {
					return nil, "record has no sku", false
				}
				if w, ok := r.tables.WeightBySKU[rec.SKU]; ok {
					return w, fmt.Sprintf("sku %q found in weight book", rec.SKU), true
				}
				return nil, "", false
			}},
			{TierExactName, "weight book", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				key := Normalize(rec.RawTitle)
				if w, ok := r.tables.WeightByName[key]; ok {
					return w, fmt.Sprintf("normalized title %q found in weight book", key), true
				}
				return nil, "", false
			}},
			{TierParent, "family siblings", func(rec ProductRecord, family *FamilyGroup) (any, string, bool) {
				return inheritFloat(family, rec.SourceID, func(sib ProductRecord) (float64, bool) {
					return sib.Weight, sib.Weight > 0
				})
			}},
		}
	case AttrBrand:
		return []cascadeStep{
			{TierSelf, "record", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.Vendor != "" {
					return rec.Vendor, "vendor present on record", true
				}
				return nil, "", false
			}},
			{TierExactName, "brand book", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				key := Normalize(rec.RawTitle)
				if brand, ok := r.tables.BrandByName[key]; ok {
					return brand, fmt.Sprintf("normalized title %q found in brand book", key), true
				}
				return nil, "", false
			}},
			{TierParent, "family siblings", func(rec ProductRecord, family *FamilyGroup) (any, string, bool) {
				if family == nil {
					return nil, "", false
				}
				for _, m := range family.Members {
					if m.Record.SourceID != rec.SourceID && m.Record.Vendor != "" {
						return m.Record.Vendor, fmt.Sprintf("inherited from sibling %q", m.Record.SourceID), true
					}
				}
				return nil, "", false
			}},
		}
	case AttrImage:
		return []cascadeStep{
			{TierSelf, "record", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				if rec.ImageRef != "" {
					return rec.ImageRef, "image present on record", true
				}
				return nil, "", false
			}},
			{TierExactName, "image index", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				key := Normalize(rec.RawTitle)
				if img, ok := r.tables.ImageByName[key]; ok {
					return img, fmt.Sprintf("normalized title %q found in image index", key), true
				}
				return nil, "", false
			}},
			{TierFuzzyName, "image filenames", r.fuzzyImage},
			{TierParent, "family siblings", func(rec ProductRecord, family *FamilyGroup) (any, string, bool) {
				if family == nil {
					return nil, "", false
				}
				for _, m := range family.Members {
					if m.Record.SourceID != rec.SourceID && m.Record.ImageRef != "" {
						return m.Record.ImageRef, fmt.Sprintf("inherited from sibling %q", m.Record.SourceID), true
					}
				}
				return nil, "", false
			}},
			{TierPlaceholder, "category placeholders", func(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
				key := Normalize(rec.CategoryHint)
				if img, ok := r.tables.Placeholders[key]; ok {
					return img, fmt.Sprintf("placeholder for category %q", key), true
				}
				return nil, "", false
			}},
		}
	}
	return nil
}

// fuzzyImage scores the title's token overlap against every known image
// filename and takes the best match at or above the configured minimum.
func (r *Resolver) fuzzyImage(rec ProductRecord, _ *FamilyGroup) (any, string, bool) {
	titleTokens := strings.Fields(Normalize(rec.RawTitle))
	best, bestScore := "", 0.0
	for _, file := range r.tables.ImageFiles {
		score := tokenOverlap(titleTokens, filenameTokens(file))
		if score > bestScore || (score == bestScore && best != "" && file < best) {
			best, bestScore = file, score
		}
	}
	if best == "" || bestScore < r.cfg.MinImageTokenOverlap {
		return nil, fmt.Sprintf("best filename overlap %.2f below minimum %.2f", bestScore, r.cfg.MinImageTokenOverlap), false
	}
	return best, fmt.Sprintf("filename %q overlaps title at %.2f", best, bestScore), true
}

var filenameSplit = regexp.MustCompile(`[^a-z0-9]+`)

// filenameTokens tokenizes an image filename: extension dropped, remaining
// text split on every non-alphanumeric run.
func filenameTokens(file string) []string {
	name := path.Base(file)
	name = strings.TrimSuffix(name, path.Ext(name))
	return strings.Fields(filenameSplit.ReplaceAllString(strings.ToLower(name), " "))
}

// inheritFloat returns the first sibling value accepted by pick, walking the
// family's members in their stable sort order.
func inheritFloat(family *FamilyGroup, selfID string, pick func(ProductRecord) (float64, bool)) (any, string, bool) {
	if family == nil {
		return nil, "", false
	}
	for _, m := range family.Members {
		if m.Record.SourceID == selfID {
			continue
		}
		if v, ok := pick(m.Record); ok {
			return v, fmt.Sprintf("inherited from sibling %q", m.Record.SourceID), true
		}
	}
	return nil, "", false
}
