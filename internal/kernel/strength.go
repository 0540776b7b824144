package kernel

import "synapse/internal/types"

// componentWeights are fixed per the composite strength formula: serp 0.30,
// concept 0.25, perspective 0.15, entity 0.15, intent 0.15.
const (
	weightSerpOverlap          = 0.30
	weightConceptOverlap       = 0.25
	weightPerspectiveAlignment = 0.15
	weightEntityOverlap        = 0.15
	weightIntentProximity      = 0.15
)

// contradictionConceptThreshold, contradictionIntentDistanceThreshold are
// the fixed thresholds that jointly define the contradiction flag.
const (
	contradictionConceptThreshold       = 0.6
	contradictionIntentDistanceThreshold = 0.4
	contradictionPenalty                 = 0.2
)

// SynapseStrength computes the weighted composite strength from a
// component breakdown where any component may be absent (nil pointer); an
// absent component contributes 0 to both the numerator and the
// signals-present count. perspectiveInversion and intentDistance are passed
// separately because the contradiction check needs the raw distance, not
// just the alignment-derived proximity stored in the breakdown.
func SynapseStrength(comp types.ComponentBreakdown, perspectiveInversion bool, intentDistance float64) (strength float64, signalsPresent int, contradiction bool) {
	if comp.SerpOverlap != nil {
		strength += *comp.SerpOverlap * weightSerpOverlap
		signalsPresent++
	}
	if comp.ConceptOverlap != nil {
		strength += *comp.ConceptOverlap * weightConceptOverlap
		signalsPresent++
	}
	if comp.PerspectiveAlignment != nil {
		strength += *comp.PerspectiveAlignment * weightPerspectiveAlignment
		signalsPresent++
	}
	if comp.EntityOverlap != nil {
		strength += *comp.EntityOverlap * weightEntityOverlap
		signalsPresent++
	}
	if comp.IntentProximity != nil {
		strength += *comp.IntentProximity * weightIntentProximity
		signalsPresent++
	}

	conceptOverlap := 0.0
	if comp.ConceptOverlap != nil {
		conceptOverlap = *comp.ConceptOverlap
	}
	contradiction = conceptOverlap > contradictionConceptThreshold &&
		perspectiveInversion &&
		intentDistance > contradictionIntentDistanceThreshold

	return types.Clamp01(strength), signalsPresent, contradiction
}

// EffectiveSelectionStrength applies the fixed contradiction downgrade used
// during selection while leaving the raw strength intact for explanation.
func EffectiveSelectionStrength(rawStrength float64, contradiction bool) float64 {
	if !contradiction {
		return rawStrength
	}
	return types.Clamp01(rawStrength - contradictionPenalty)
}

// InferFamilyFromComponents deterministically infers a synapse family from
// a component breakdown when the LLM classification budget is exhausted.
// Table: high concept + low intent delta -> EXPANSION; moderate concept +
// high intent delta -> TRANSITION; high perspective delta -> BOUNDARY;
// otherwise CONTEXTUAL.
func InferFamilyFromComponents(comp types.ComponentBreakdown, intentDistance float64) types.SynapseFamily {
	concept := deref(comp.ConceptOverlap)
	perspectiveAlignment := deref(comp.PerspectiveAlignment)
	perspectiveDelta := 1 - perspectiveAlignment

	switch {
	case perspectiveDelta >= 0.5:
		return types.FamilyBoundary
	case concept >= 0.5 && intentDistance < 0.3:
		return types.FamilyExpansion
	case concept >= 0.25 && intentDistance >= 0.3:
		return types.FamilyTransition
	default:
		return types.FamilyContextual
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
