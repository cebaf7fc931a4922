package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs the full consolidation pipeline over one in-memory catalog
// snapshot: normalize, extract sizes, group families, pick canonicals,
// dedupe variants, resolve missing attributes. Single-threaded and
// batch-oriented; all I/O belongs to collaborators that run before or after.
type Engine struct {
	cfg    Config
	sizes  *SizeExtractor
	logger *zap.Logger
}

// New builds an engine. A nil logger disables operational logging; the
// domain decision log is always produced regardless.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalized()
	return &Engine{cfg: cfg, sizes: NewSizeExtractor(cfg), logger: logger}
}

// Stats summarizes one run for reporting and the stats RPC.
type Stats struct {
	TotalRecords         int          `json:"totalRecords"`
	MalformedRecords     int          `json:"malformedRecords"`
	Families             int          `json:"families"`
	MultiVariantFamilies int          `json:"multiVariantFamilies"`
	VariantSlots         int          `json:"variantSlots"`
	DroppedDuplicates    int          `json:"droppedDuplicates"`
	FallbackCandidates   int          `json:"fallbackCandidates"`
	ResolutionTiers      map[Tier]int `json:"resolutionTiers"`
}

// Result is the consolidated output of one run: finalized families plus the
// decision log and attribute provenance for human review.
type Result struct {
	RunID       string                `json:"runId"`
	Families    []FamilyGroup         `json:"families"`
	Resolutions []AttributeResolution `json:"resolutions"`
	Attempts    []ResolutionAttempt   `json:"attempts"`
	Stats       Stats                 `json:"stats"`
	Log         *DecisionLog          `json:"-"`

	resolved map[string]map[Attribute]any
}

// Run consolidates a snapshot. Input records are never mutated; every
// derived fact lands in the result's side tables keyed by sourceId.
func (e *Engine) Run(records []ProductRecord, tables LookupTables) (*Result, error) {
	log := NewDecisionLog()
	res := &Result{
		RunID:    uuid.NewString(),
		Log:      log,
		resolved: make(map[string]map[Attribute]any),
	}
	e.logger.Info("starting consolidation run",
		zap.String("run_id", res.RunID), zap.Int("records", len(records)))

	grouper := NewGrouper(e.cfg, e.sizes, log)
	selector := NewCanonicalSelector(e.sizes, log)
	deduper := NewDeduplicator(e.cfg, log)
	resolver := NewResolver(e.cfg, tables, log)

	families := grouper.Group(records)
	for i := range families {
		selector.Select(&families[i])
		deduper.Dedupe(&families[i])
		e.resolveMissing(resolver, &families[i], res)
	}
	res.Families = families
	res.Attempts = resolver.Attempts()
	res.Stats = e.buildStats(records, res)

	e.logger.Info("consolidation run complete",
		zap.String("run_id", res.RunID),
		zap.Int("families", res.Stats.Families),
		zap.Int("variant_slots", res.Stats.VariantSlots),
		zap.Int("decisions", log.Len()))
	return res, nil
}

// resolveMissing walks the cascade for every attribute a surviving slot's
// record lacks, and records the winning value in the result's side table.
func (e *Engine) resolveMissing(resolver *Resolver, family *FamilyGroup, res *Result) {
	for _, slot := range family.Slots {
		rec := slot.Record
		missing := make([]Attribute, 0, 4)
		if !rec.HasPrice() {
			missing = append(missing, AttrPrice)
		}
		if rec.Weight <= 0 {
			missing = append(missing, AttrWeight)
		}
		if rec.Vendor == "" {
			missing = append(missing, AttrBrand)
		}
		if rec.ImageRef == "" {
			missing = append(missing, AttrImage)
		}
		for _, attr := range missing {
			resolution := resolver.Resolve(rec, family, attr)
			res.Resolutions = append(res.Resolutions, resolution)
			if resolution.Resolved() {
				if res.resolved[rec.SourceID] == nil {
					res.resolved[rec.SourceID] = make(map[Attribute]any)
				}
				res.resolved[rec.SourceID][attr] = resolution.Value
			}
		}
	}
}

func (e *Engine) buildStats(records []ProductRecord, res *Result) Stats {
	stats := Stats{
		TotalRecords:    len(records),
		Families:        len(res.Families),
		ResolutionTiers: make(map[Tier]int),
	}
	for _, f := range res.Families {
		stats.VariantSlots += len(f.Slots)
		if len(f.Slots) > 1 {
			stats.MultiVariantFamilies++
		}
	}
	stats.MalformedRecords = len(res.Log.ByKind(DecisionMalformedInput))
	stats.DroppedDuplicates = len(res.Log.ByKind(DecisionVariantDropped))
	stats.FallbackCandidates = len(res.Log.ByKind(DecisionFallbackCandidate))
	for _, r := range res.Resolutions {
		stats.ResolutionTiers[r.Tier]++
	}
	return stats
}

// ResolvedValue returns the cascade-resolved value for a record's attribute,
// if any.
func (res *Result) ResolvedValue(sourceID string, attr Attribute) (any, bool) {
	v, ok := res.resolved[sourceID][attr]
	return v, ok
}

// enriched returns a copy of the family whose slot records carry the
// cascade-resolved attribute values. Input records stay untouched.
func (res *Result) enriched(family FamilyGroup) FamilyGroup {
	out := family
	out.Slots = make([]VariantSlot, len(family.Slots))
	copy(out.Slots, family.Slots)
	for i, slot := range out.Slots {
		values := res.resolved[slot.SourceID]
		if values == nil {
			continue
		}
		rec := slot.Record
		if v, ok := values[AttrPrice].(float64); ok {
			rec.Price = v
		}
		if v, ok := values[AttrWeight].(float64); ok {
			rec.Weight = v
		}
		if v, ok := values[AttrBrand].(string); ok {
			rec.Vendor = v
		}
		if v, ok := values[AttrImage].(string); ok {
			rec.ImageRef = v
		}
		out.Slots[i].Record = rec
	}
	return out
}

// Rows projects every finalized family into the target model, with resolved
// attribute values applied.
func (res *Result) Rows(model TargetModel) ([]Row, error) {
	var rows []Row
	for _, family := range res.Families {
		if len(family.Slots) == 0 {
			continue
		}
		projected, err := Project(res.enriched(family), model)
		if err != nil {
			return nil, err
		}
		rows = append(rows, projected...)
	}
	return rows, nil
}

// CheckProjections projects every family into both models and verifies the
// variant-value consistency invariant.
func (res *Result) CheckProjections() error {
	for _, family := range res.Families {
		if len(family.Slots) == 0 {
			continue
		}
		if _, _, err := ProjectBoth(res.enriched(family)); err != nil {
			return err
		}
	}
	return nil
}
