package engine

// CompletenessWeights score how much data a candidate row carries when two
// rows compete for the same (family, size) slot.
type CompletenessWeights struct {
	HasPrice     int `json:"hasPrice" mapstructure:"has_price"`
	HasSKU       int `json:"hasSku" mapstructure:"has_sku"`
	HasInventory int `json:"hasInventory" mapstructure:"has_inventory"`
}

// Config holds every tunable threshold the engine uses. The thresholds used
// to be magic numbers scattered through one-off scripts; they are injected
// here so behavior at the boundaries is pinned by tests.
type Config struct {
	// FallbackThreshold is the minimum similarity score for the diagnostic
	// pass to flag two single-member families as likely the same product.
	FallbackThreshold float64 `json:"similarityFallbackThreshold" mapstructure:"similarity_fallback_threshold"`

	// Weights drive variant deduplication scoring.
	Weights CompletenessWeights `json:"completenessWeights" mapstructure:"completeness_weights"`

	// MinImageTokenOverlap is the minimum token-overlap score for the fuzzy
	// image filename tier of the attribute cascade.
	MinImageTokenOverlap float64 `json:"minFuzzyImageTokenOverlap" mapstructure:"min_fuzzy_image_token_overlap"`

	// UnitPriority orders size classes when a title matches more than one
	// unit pattern. Volume and weight come first: they are more semantically
	// specific than count or dimension.
	UnitPriority []UnitClass `json:"sizeUnitPriority" mapstructure:"size_unit_priority"`
}

// DefaultConfig returns the configuration the engine ships with.
func DefaultConfig() Config {
	return Config{
		FallbackThreshold:    0.75,
		Weights:              CompletenessWeights{HasPrice: 10, HasSKU: 5, HasInventory: 3},
		MinImageTokenOverlap: 0.5,
		UnitPriority:         []UnitClass{UnitVolume, UnitWeight, UnitCount, UnitDimension, UnitPower},
	}
}

// normalized fills zero values with defaults so a partially populated Config
// (e.g. from a config file that only overrides one knob) still behaves.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.FallbackThreshold <= 0 {
		c.FallbackThreshold = def.FallbackThreshold
	}
	if c.Weights == (CompletenessWeights{}) {
		c.Weights = def.Weights
	}
	if c.MinImageTokenOverlap <= 0 {
		c.MinImageTokenOverlap = def.MinImageTokenOverlap
	}
	if len(c.UnitPriority) == 0 {
		c.UnitPriority = def.UnitPriority
	}
	return c
}
