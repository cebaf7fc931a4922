package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// UnitClass is the closed set of size categories the extractor recognizes.
type UnitClass string

const (
	UnitVolume    UnitClass = "volume"
	UnitWeight    UnitClass = "weight"
	UnitCount     UnitClass = "count"
	UnitDimension UnitClass = "dimension"
	UnitPower     UnitClass = "power"
	UnitGeneric   UnitClass = "generic"
)

// DefaultSizeLabel is the sentinel size assigned to a family's sole variant
// when no size token was detected, so the projector always has a label.
const DefaultSizeLabel = "Default"

// SizeToken is the size signature extracted from a title. Tokens are owned
// by the record they came from and recomputed per run, never shared.
type SizeToken struct {
	RawMatch string    `json:"rawMatch"`
	Quantity float64   `json:"quantity,omitempty"`
	Unit     string    `json:"unit"`
	Class    UnitClass `json:"class"`
	Label    string    `json:"label"`
}

// unitRule is one compiled pattern plus the canonical spellings of the units
// it can match.
type unitRule struct {
	class     UnitClass
	pattern   *regexp.Regexp
	canonical map[string]string
}

// SizeExtractor parses titles into size tokens using an ordered list of
// unit-pattern rules. Rule order follows Config.UnitPriority: volume and
// weight win over count and dimension because they are more semantically
// specific and collisions between them are rare.
type SizeExtractor struct {
	rules []unitRule
}

// NewSizeExtractor builds an extractor honoring the configured class order.
func NewSizeExtractor(cfg Config) *SizeExtractor {
	cfg = cfg.normalized()
	byClass := map[UnitClass]unitRule{
		UnitVolume: {
			class:   UnitVolume,
			pattern: regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(gallons|gallon|gal|quarts|quart|qt|fl\.?\s*oz|milliliters|millilitres|milliliter|millilitre|ml|liters|litres|liter|litre|l)\b`),
			canonical: map[string]string{
				"gallons": "gal", "gallon": "gal", "gal": "gal",
				"quarts": "qt", "quart": "qt", "qt": "qt",
				"liters": "l", "litres": "l", "liter": "l", "litre": "l", "l": "l",
				"milliliters": "ml", "millilitres": "ml", "milliliter": "ml", "millilitre": "ml", "ml": "ml",
				"fl oz": "fl oz", "fl. oz": "fl oz", "floz": "fl oz",
			},
		},
		UnitWeight: {
			class:   UnitWeight,
			pattern: regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(pounds|pound|lbs|lb|kilograms|kilogram|kg|grams|gram|g|ounces|ounce|oz)\b`),
			canonical: map[string]string{
				"pounds": "lb", "pound": "lb", "lbs": "lb", "lb": "lb",
				"kilograms": "kg", "kilogram": "kg", "kg": "kg",
				"grams": "g", "gram": "g", "g": "g",
				"ounces": "oz", "ounce": "oz", "oz": "oz",
			},
		},
		UnitCount: {
			class:   UnitCount,
			pattern: regexp.MustCompile(`(\d+)\s*-?\s*(packs|pack|pk|ct|count|pcs|pieces)\b`),
			canonical: map[string]string{
				"packs": "pack", "pack": "pack", "pk": "pack",
				"ct": "ct", "count": "ct", "pcs": "ct", "pieces": "ct",
			},
		},
		UnitDimension: {
			class:   UnitDimension,
			pattern: regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(inches\b|inch\b|in\b|")`),
			canonical: map[string]string{
				"inches": "in", "inch": "in", "in": "in", `"`: "in",
			},
		},
		UnitPower: {
			class:   UnitPower,
			pattern: regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(watts|watt|w)\b`),
			canonical: map[string]string{
				"watts": "w", "watt": "w", "w": "w",
			},
		},
	}

	x := &SizeExtractor{}
	for _, class := range cfg.UnitPriority {
		if rule, ok := byClass[class]; ok {
			x.rules = append(x.rules, rule)
		}
	}
	return x
}

// Extract returns the first size token found in priority order, or nil when
// the title carries no detectable unit.
func (x *SizeExtractor) Extract(title string) *SizeToken {
	matches := x.Matches(title)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// Matches returns every candidate size token in rule-priority order, with
// same-class repeats in title order. Callers that only use the first match
// should surface the rest (mis-extraction is a known hazard of multi-unit
// titles and must not pass silently).
func (x *SizeExtractor) Matches(title string) []SizeToken {
	normalized := Normalize(title)
	var out []SizeToken
	for _, rule := range x.rules {
		for _, m := range rule.pattern.FindAllStringSubmatch(normalized, -1) {
			if len(m) < 3 {
				continue
			}
			qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
			if err != nil {
				continue
			}
			unit := rule.canonical[strings.Join(strings.Fields(m[2]), " ")]
			if unit == "" {
				unit = m[2]
			}
			out = append(out, SizeToken{
				RawMatch: m[0],
				Quantity: qty,
				Unit:     unit,
				Class:    rule.class,
				Label:    formatSizeLabel(qty, unit),
			})
		}
	}
	return out
}

// StripSize removes the matched size substring from the title and cleans up
// the artifacts that removal leaves behind (empty parentheses, trailing
// dashes). A nil token is a no-op: the normalized title comes back unchanged.
func (x *SizeExtractor) StripSize(title string, token *SizeToken) string {
	base := Normalize(title)
	if token == nil {
		return base
	}
	base = strings.Replace(base, token.RawMatch, " ", 1)
	base = emptyParens.ReplaceAllString(base, " ")
	base = strings.Join(strings.Fields(base), " ")
	return strings.Trim(base, " -,/")
}

var emptyParens = regexp.MustCompile(`[(\[]\s*[)\]]`)

func formatSizeLabel(qty float64, unit string) string {
	return strconv.FormatFloat(qty, 'f', -1, 64) + " " + unit
}
