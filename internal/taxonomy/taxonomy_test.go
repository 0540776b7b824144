package taxonomy

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/types"
)

func TestMapConcept_ExactTokenMatch(t *testing.T) {
	result := MapConcept("cost", "default")
	assert.Equal(t, "COST", result.Token)
	assert.False(t, result.OpenSet)
}

func TestMapConcept_Synonym(t *testing.T) {
	result := MapConcept("cheapest", "us")
	assert.Equal(t, "COST", result.Token)
}

func TestMapConcept_MarketSpecificSynonym(t *testing.T) {
	result := MapConcept("mäklare", "se")
	assert.Equal(t, "AGENT", result.Token)
}

func TestMapConcept_UnknownFallsBackToOpenSet(t *testing.T) {
	result := MapConcept("xyzzy plugh", "default")
	assert.True(t, result.OpenSet)
	assert.True(t, strings.HasPrefix(result.Token, "NEW:"))
	assert.Equal(t, "NEW:XYZZY_PLUGH", result.Token)
}

func TestMapConcept_EmptyInputNeverRaises(t *testing.T) {
	result := MapConcept("   ", "default")
	assert.Equal(t, "NEW:UNKNOWN", result.Token)
	assert.True(t, result.OpenSet)
}

func TestBuildVectorFingerprint_FixedLength(t *testing.T) {
	concepts := []types.CanonicalConcept{
		{Token: "COST", Weight: 0.4},
		{Token: "COST", Weight: 0.9}, // higher weight wins
		{Token: "NEW:FOO", Weight: 1.0}, // open-set: no slot
	}
	vec := BuildVectorFingerprint(concepts)
	assert.Len(t, vec, NumTokens())
	assert.InDelta(t, 0.9, vec[tokenIndex["COST"]], 1e-9)
}

func TestBuildVectorFingerprint_EmptyConceptsYieldsZeroVector(t *testing.T) {
	vec := BuildVectorFingerprint(nil)
	assert.Len(t, vec, NumTokens())
	for _, v := range vec {
		assert.Equal(t, 0.0, v)
	}
}

func TestFacetTerms_IncludesMarketAndDefaultAndIsSorted(t *testing.T) {
	terms := FacetTerms("se")
	assert.Contains(t, terms, "mäklare")
	assert.Contains(t, terms, "cheap")
	assert.True(t, sort.StringsAreSorted(terms))
}

func TestFacetTerms_UnknownMarketFallsBackToDefaultOnly(t *testing.T) {
	terms := FacetTerms("zz")
	assert.Contains(t, terms, "cheap")
	assert.NotContains(t, terms, "mäklare")
}
