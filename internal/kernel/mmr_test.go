package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMMRSelect_ReturnsMinKOrPoolSize(t *testing.T) {
	items := []MMRItem{
		{ID: "1", Phrase: "a", Relevance: 0.9, Facet: "f1"},
		{ID: "2", Phrase: "b", Relevance: 0.8, Facet: "f1"},
	}
	sim := func(i, j int) float64 { return 0 }

	selected := MMRSelect(items, sim, 0.75, 5, 12, 5)
	assert.Len(t, selected, 2)
}

func TestMMRSelect_NoDuplicates(t *testing.T) {
	items := make([]MMRItem, 10)
	for i := range items {
		items[i] = MMRItem{ID: string(rune('a' + i)), Phrase: string(rune('a' + i)), Relevance: float64(10-i) / 10, Facet: "f"}
	}
	sim := func(i, j int) float64 { return 0.1 }

	selected := MMRSelect(items, sim, 0.75, 5, 12, 5)
	assert.Len(t, selected, 5)
	seen := map[int]bool{}
	for _, s := range selected {
		assert.False(t, seen[s], "duplicate selection")
		seen[s] = true
	}
}

func TestMMRSelect_FacetCapRespected(t *testing.T) {
	items := make([]MMRItem, 10)
	for i := range items {
		items[i] = MMRItem{ID: string(rune('a' + i)), Phrase: string(rune('a' + i)), Relevance: float64(10-i) / 10, Facet: "same"}
	}
	sim := func(i, j int) float64 { return 0 }

	selected := MMRSelect(items, sim, 0.75, 10, 3, 5)
	assert.LessOrEqual(t, len(selected), 3)
}

func TestMMRSelect_NearDuplicateCapRespected(t *testing.T) {
	items := make([]MMRItem, 10)
	for i := range items {
		items[i] = MMRItem{ID: string(rune('a' + i)), Phrase: string(rune('a' + i)), Relevance: float64(10-i) / 10, Facet: "f"}
	}
	// Every pair is a near-duplicate.
	sim := func(i, j int) float64 { return 0.95 }

	selected := MMRSelect(items, sim, 0.75, 10, 12, 2)
	// first item is free, then at most 2 more near-duplicate pairs allowed
	assert.LessOrEqual(t, len(selected), 3)
}

func TestMMRSelect_TieBreakByRelevanceThenLexicographic(t *testing.T) {
	items := []MMRItem{
		{ID: "1", Phrase: "zeta", Relevance: 0.5, Facet: "f"},
		{ID: "2", Phrase: "alpha", Relevance: 0.5, Facet: "f"},
	}
	sim := func(i, j int) float64 { return 0 }
	selected := MMRSelect(items, sim, 0.75, 1, 12, 5)
	assert.Equal(t, []int{1}, selected) // "alpha" sorts first
}
