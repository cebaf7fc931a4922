package engine

// Aliases canonicalize vendor and category spellings before records enter
// the pipeline. The maps are injected configuration, keyed by normalized
// spelling; the engine ships no dictionary of its own.
type Aliases struct {
	Vendors    map[string]string `json:"vendors" mapstructure:"vendors"`
	Categories map[string]string `json:"categories" mapstructure:"categories"`
}

// CanonicalVendor maps a raw vendor spelling to its canonical display form.
// Unknown vendors pass through untouched.
func (a Aliases) CanonicalVendor(raw string) string {
	if canonical, ok := a.Vendors[Normalize(raw)]; ok {
		return canonical
	}
	return raw
}

// CanonicalCategory maps a raw category hint onto the review taxonomy.
// Unknown categories pass through.
func (a Aliases) CanonicalCategory(raw string) string {
	if canonical, ok := a.Categories[Normalize(raw)]; ok {
		return canonical
	}
	return raw
}

// ApplyTo returns the record with vendor and category canonicalized. The
// input record is left untouched.
func (a Aliases) ApplyTo(rec ProductRecord) ProductRecord {
	rec.Vendor = a.CanonicalVendor(rec.Vendor)
	rec.CategoryHint = a.CanonicalCategory(rec.CategoryHint)
	return rec
}
