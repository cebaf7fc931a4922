package main

import "github.com/storemigrate/catalog-resolver/engine"

// Default alias tables collected from migrated catalogs. Source platforms
// rarely agree on brand spelling, so records are canonicalized on ingest.
// Config files can extend or replace these under the "aliases" key.

// BuildVendorAliasMap returns vendor name mappings keyed by normalized
// spelling.
func BuildVendorAliasMap() map[string]string {
	return map[string]string{
		"advanced nutrients":  "Advanced Nutrients",
		"advancednutrients":   "Advanced Nutrients",
		"an":                  "Advanced Nutrients",
		"fox farm":            "Fox Farm",
		"foxfarm":             "Fox Farm",
		"fox farms":           "Fox Farm",
		"general hydroponics": "General Hydroponics",
		"gen hydro":           "General Hydroponics",
		"gh":                  "General Hydroponics",
		"botanicare":          "Botanicare",
		"house and garden":    "House & Garden",
		"house & garden":      "House & Garden",
		"h&g":                 "House & Garden",
		"canna":               "Canna",
		"biobizz":             "BioBizz",
		"bio bizz":            "BioBizz",
		"roots organics":      "Roots Organics",
		"roots organic":       "Roots Organics",
		"nectar for the gods": "Nectar For The Gods",
		"emerald harvest":     "Emerald Harvest",
		"athena":              "Athena",
		"mills":               "Mills Nutrients",
		"mills nutrients":     "Mills Nutrients",
		"cyco":                "Cyco",
		"grow more":           "Grow More",
		"growmore":            "Grow More",
		"dyna gro":            "Dyna-Gro",
		"dyna-gro":            "Dyna-Gro",
		"dynagro":             "Dyna-Gro",
		"mother earth":        "Mother Earth",
		"gaia green":          "Gaia Green",
		"down to earth":       "Down To Earth",
		"dr earth":            "Dr. Earth",
		"dr. earth":           "Dr. Earth",
		"espoma":              "Espoma",
		"jacks":               "Jack's",
		"jack's":              "Jack's",
		"jacks nutrients":     "Jack's",
		"hydrofarm":           "Hydrofarm",
		"sunlight supply":     "Sunlight Supply",
		"gavita":              "Gavita",
		"spider farmer":       "Spider Farmer",
		"spiderfarmer":        "Spider Farmer",
		"mars hydro":          "Mars Hydro",
		"marshydro":           "Mars Hydro",
		"ac infinity":         "AC Infinity",
		"acinfinity":          "AC Infinity",
		"vivosun":             "Vivosun",
		"grodan":              "Grodan",
		"mammoth":             "Mammoth",
		"clonex":              "Clonex",
		"great white":         "Great White",
		"xtreme gardening":    "Xtreme Gardening",
		"extreme gardening":   "Xtreme Gardening",
	}
}

// BuildCategoryAliasMap returns category hint mappings keyed by normalized
// spelling, collapsing per-platform taxonomy drift into one review taxonomy.
func BuildCategoryAliasMap() map[string]string {
	return map[string]string{
		"nutrients":           "Nutrients",
		"nutrient":            "Nutrients",
		"plant nutrients":     "Nutrients",
		"fertilizer":          "Nutrients",
		"fertilizers":         "Nutrients",
		"additives":           "Additives",
		"supplements":         "Additives",
		"boosters":            "Additives",
		"grow media":          "Grow Media",
		"growing media":       "Grow Media",
		"soil":                "Grow Media",
		"soils":               "Grow Media",
		"coco":                "Grow Media",
		"lighting":            "Lighting",
		"grow lights":         "Lighting",
		"led":                 "Lighting",
		"environment":         "Environment",
		"climate control":     "Environment",
		"ventilation":         "Environment",
		"fans":                "Environment",
		"propagation":         "Propagation",
		"cloning":             "Propagation",
		"seeds and clones":    "Propagation",
		"pest control":        "Pest Control",
		"ipm":                 "Pest Control",
		"pots":                "Containers",
		"containers":          "Containers",
		"pots and containers": "Containers",
		"harvest":             "Harvest",
		"trimming":            "Harvest",
	}
}

func defaultAliases() engine.Aliases {
	return engine.Aliases{
		Vendors:    BuildVendorAliasMap(),
		Categories: BuildCategoryAliasMap(),
	}
}
