package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/types"
)

func TestSerpOverlap_RequiresThreeURLs(t *testing.T) {
	t.Run("both lists short returns zero", func(t *testing.T) {
		overlap, shared := SerpOverlap([]string{"a", "b"}, []string{"a", "b"})
		assert.Equal(t, 0.0, overlap)
		assert.Nil(t, shared)
	})

	t.Run("one list short returns zero", func(t *testing.T) {
		overlap, _ := SerpOverlap([]string{"a", "b", "c"}, []string{"a", "b"})
		assert.Equal(t, 0.0, overlap)
	})

	t.Run("full overlap with three URLs each", func(t *testing.T) {
		urls := []string{"a", "b", "c"}
		overlap, shared := SerpOverlap(urls, urls)
		assert.Equal(t, 1.0, overlap)
		assert.ElementsMatch(t, urls, shared)
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"b", "c", "d"}
		overlap, shared := SerpOverlap(a, b)
		assert.InDelta(t, 0.5, overlap, 1e-9) // 2 shared / 4 union
		assert.ElementsMatch(t, []string{"b", "c"}, shared)
	})
}

func TestConceptOverlap_Symmetric(t *testing.T) {
	a := []types.CanonicalConcept{{Token: "COST", Weight: 0.8}, {Token: "SPEED", Weight: 0.3}}
	b := []types.CanonicalConcept{{Token: "COST", Weight: 0.5}, {Token: "TRUST", Weight: 0.6}}

	ab, sharedAB, _, _ := ConceptOverlap(a, b)
	ba, sharedBA, _, _ := ConceptOverlap(b, a)

	assert.InDelta(t, ab, ba, 1e-9)
	assert.Equal(t, sharedAB, sharedBA)
	// numerator = min(0.8,0.5) = 0.5; denominator = max(0.8,0.5) + 0.3(onlyA) + 0.6(onlyB) = 0.5+0.3+0.6=1.4
	assert.InDelta(t, 0.5/1.4, ab, 1e-9)
}

func TestConceptOverlap_NoSharedTokens(t *testing.T) {
	a := []types.CanonicalConcept{{Token: "COST", Weight: 1.0}}
	b := []types.CanonicalConcept{{Token: "SPEED", Weight: 1.0}}
	overlap, shared, onlyA, onlyB := ConceptOverlap(a, b)
	assert.Equal(t, 0.0, overlap)
	assert.Empty(t, shared)
	assert.Equal(t, []string{"COST"}, onlyA)
	assert.Equal(t, []string{"SPEED"}, onlyB)
}

func TestConceptOverlap_EmptyBothSides(t *testing.T) {
	overlap, shared, onlyA, onlyB := ConceptOverlap(nil, nil)
	assert.Equal(t, 0.0, overlap)
	assert.Empty(t, shared)
	assert.Empty(t, onlyA)
	assert.Empty(t, onlyB)
}
