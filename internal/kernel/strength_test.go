package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"synapse/internal/types"
)

func ptr(f float64) *float64 { return &f }

func TestSynapseStrength_AbsentComponentContributesZero(t *testing.T) {
	full := types.ComponentBreakdown{
		SerpOverlap:          ptr(0.5),
		ConceptOverlap:       ptr(0.5),
		PerspectiveAlignment: ptr(0.5),
		EntityOverlap:        ptr(0.5),
		IntentProximity:      ptr(0.5),
	}
	strengthFull, signalsFull, _ := SynapseStrength(full, false, 0)

	missing := full
	missing.EntityOverlap = nil
	strengthMissing, signalsMissing, _ := SynapseStrength(missing, false, 0)

	assert.Equal(t, 5, signalsFull)
	assert.Equal(t, 4, signalsMissing)
	assert.InDelta(t, strengthFull-0.5*weightEntityOverlap, strengthMissing, 1e-9)
}

func TestSynapseStrength_Monotone(t *testing.T) {
	low := types.ComponentBreakdown{SerpOverlap: ptr(0.2)}
	high := types.ComponentBreakdown{SerpOverlap: ptr(0.8)}
	sLow, _, _ := SynapseStrength(low, false, 0)
	sHigh, _, _ := SynapseStrength(high, false, 0)
	assert.Greater(t, sHigh, sLow)
}

func TestSynapseStrength_Contradiction(t *testing.T) {
	comp := types.ComponentBreakdown{ConceptOverlap: ptr(0.7)}
	strength, _, contradiction := SynapseStrength(comp, true, 0.5)
	assert.True(t, contradiction)

	effective := EffectiveSelectionStrength(strength, contradiction)
	assert.InDelta(t, strength-contradictionPenalty, effective, 1e-9)
}

func TestSynapseStrength_NoContradictionWithoutAllThreeConditions(t *testing.T) {
	comp := types.ComponentBreakdown{ConceptOverlap: ptr(0.7)}
	// inversion true but intent distance too small
	_, _, contradiction := SynapseStrength(comp, true, 0.1)
	assert.False(t, contradiction)

	// intent distance high but no inversion
	_, _, contradiction2 := SynapseStrength(comp, false, 0.5)
	assert.False(t, contradiction2)
}

func TestInferFamilyFromComponents(t *testing.T) {
	cases := []struct {
		name     string
		comp     types.ComponentBreakdown
		distance float64
		want     types.SynapseFamily
	}{
		{"high perspective delta -> boundary", types.ComponentBreakdown{PerspectiveAlignment: ptr(0.1)}, 0.1, types.FamilyBoundary},
		{"high concept low distance -> expansion", types.ComponentBreakdown{ConceptOverlap: ptr(0.6), PerspectiveAlignment: ptr(0.9)}, 0.1, types.FamilyExpansion},
		{"moderate concept high distance -> transition", types.ComponentBreakdown{ConceptOverlap: ptr(0.3), PerspectiveAlignment: ptr(0.9)}, 0.5, types.FamilyTransition},
		{"low everything -> contextual", types.ComponentBreakdown{PerspectiveAlignment: ptr(0.9)}, 0.1, types.FamilyContextual},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := InferFamilyFromComponents(c.comp, c.distance)
			assert.Equal(t, c.want, got)
		})
	}
}
