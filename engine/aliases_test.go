package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAliases() Aliases {
	return Aliases{
		Vendors: map[string]string{
			"fox farm":  "Fox Farm",
			"foxfarm":   "Fox Farm",
			"fox farms": "Fox Farm",
		},
		Categories: map[string]string{
			"fertilizers": "Nutrients",
			"grow lights": "Lighting",
		},
	}
}

func TestAliasesCanonicalVendor(t *testing.T) {
	a := testAliases()
	assert.Equal(t, "Fox Farm", a.CanonicalVendor("FoxFarm"))
	assert.Equal(t, "Fox Farm", a.CanonicalVendor("fox farms"))
	// Unknown vendors pass through untouched.
	assert.Equal(t, "Bob's Garden Co", a.CanonicalVendor("Bob's Garden Co"))
}

func TestAliasesUnifyFamilyKeys(t *testing.T) {
	a := testAliases()
	assert.Equal(t,
		Normalize(a.CanonicalVendor("FoxFarm")),
		Normalize(a.CanonicalVendor("Fox Farms")))
}

func TestAliasesCanonicalCategory(t *testing.T) {
	a := testAliases()
	assert.Equal(t, "Nutrients", a.CanonicalCategory("Fertilizers"))
	assert.Equal(t, "Lighting", a.CanonicalCategory("grow lights"))
	assert.Equal(t, "Misc Hardware", a.CanonicalCategory("Misc Hardware"))
}

func TestAliasesApplyToLeavesInputAlone(t *testing.T) {
	a := testAliases()
	in := ProductRecord{SourceID: "r1", Vendor: "FoxFarm", CategoryHint: "fertilizers"}
	out := a.ApplyTo(in)
	assert.Equal(t, "Fox Farm", out.Vendor)
	assert.Equal(t, "Nutrients", out.CategoryHint)
	assert.Equal(t, "FoxFarm", in.Vendor)
}

func TestEmptyAliasesPassThrough(t *testing.T) {
	var a Aliases
	assert.Equal(t, "FoxFarm", a.CanonicalVendor("FoxFarm"))
	assert.Equal(t, "Soil", a.CanonicalCategory("Soil"))
}
