// Package synapsebuilder computes the pairwise component scores between
// nodes, filters them to a strength threshold, and classifies the
// surviving pairs into typed edges — calling the LLM only within a fixed
// budget and falling back to deterministic family inference once that
// budget is exhausted.
package synapsebuilder

import (
	"context"
	"sort"

	"synapse/internal/adapters"
	"synapse/internal/kernel"
	"synapse/internal/logging"
	"synapse/internal/types"
)

// pairGateMinSerpOverlap is the minimum serp_overlap that admits a pair
// into scoring when the two nodes share no canonical concept.
const pairGateMinSerpOverlap = 0.1

// Config controls thresholds and the classification budget.
type Config struct {
	MinStrength          float64 // default 0.30
	ClassificationBudget int     // max LLM classification calls; 0 means none. Seed edges go first, then every other edge in pair order; intra-cluster edges get no priority.
}

func (c Config) withDefaults() Config {
	if c.MinStrength == 0 {
		c.MinStrength = 0.30
	}
	return c
}

// Result is the outcome of Build.
type Result struct {
	Edges                 []types.Edge
	ClassificationTruncated bool
	ClassificationCalls   int
}

// classifyPriority orders surviving pairs for LLM classification: seed
// edges first, then the rest; every edge past the budget falls back to
// deterministic inference.
type classifyPriority struct {
	edgeIndex int
	isSeedEdge bool
}

// Build computes every admissible pair's component breakdown, keeps edges
// at or above MinStrength, and classifies them — seed edges first, since
// they anchor the output artifacts — up to ClassificationBudget calls.
func Build(ctx context.Context, seedID string, nodes []types.Node, llm adapters.LLMAdapter, cfg Config) Result {
	cfg = cfg.withDefaults()

	byID := make(map[string]types.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}
	ids := make([]string, 0, len(nodes))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var edges []types.Edge
	var priorities []classifyPriority

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := byID[ids[i]], byID[ids[j]]
			comp, inversion, intentDistance, ok := componentsFor(a, b)
			if !ok {
				continue
			}
			strength, signals, contradiction := kernel.SynapseStrength(comp, inversion, intentDistance)
			if signals == 0 || strength < cfg.MinStrength {
				continue
			}
			edge := types.Edge{
				SourceID:   ids[i],
				TargetID:   ids[j],
				Strength:   strength,
				Components: comp,
				Contradiction: contradiction,
			}
			edge.SelectionStrength = kernel.EffectiveSelectionStrength(strength, contradiction)

			isSeedEdge := ids[i] == seedID || ids[j] == seedID
			priorities = append(priorities, classifyPriority{edgeIndex: len(edges), isSeedEdge: isSeedEdge})
			edges = append(edges, edge)
		}
	}

	sort.SliceStable(priorities, func(i, j int) bool {
		if priorities[i].isSeedEdge != priorities[j].isSeedEdge {
			return priorities[i].isSeedEdge
		}
		return priorities[i].edgeIndex < priorities[j].edgeIndex
	})

	calls := 0
	truncated := false
	for _, p := range priorities {
		edge := &edges[p.edgeIndex]
		a, b := byID[edge.SourceID], byID[edge.TargetID]

		if llm == nil || calls >= cfg.ClassificationBudget {
			if calls >= cfg.ClassificationBudget {
				truncated = true
			}
			applyDeterministicFamily(edge)
			continue
		}

		shared, onlyA, onlyB := partitionConceptTokens(a, b)
		_, inversion := kernel.PerspectiveAlignment(a.Signature.Perspective.Primary, b.Signature.Perspective.Primary)
		result, _, err := llm.SynapseClassification(ctx, adapters.SynapseClassificationRequest{
			Components:     edge.Components,
			SharedConcepts: shared,
			OnlyAConcepts:  onlyA,
			OnlyBConcepts:  onlyB,
			PerspectiveA:   a.Signature.Perspective.Primary,
			PerspectiveB:   b.Signature.Perspective.Primary,
			Inversion:      inversion,
			IntentDistance: intentDistanceFor(a, b),
		})
		calls++
		if err != nil {
			logging.SynapseWarn("classification failed for %s<->%s, using deterministic inference: %v", edge.SourceID, edge.TargetID, err)
			applyDeterministicFamily(edge)
			continue
		}
		edge.Family = result.Family
		edge.Subtype = result.Subtype
		edge.Explanation = result.Explanation
		edge.ActionableInsight = result.ActionableInsight
		edge.ClassifiedByLLM = true
		if result.Contradiction {
			edge.Contradiction = true
			edge.SelectionStrength = kernel.EffectiveSelectionStrength(edge.Strength, true)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		return edges[i].TargetID < edges[j].TargetID
	})

	return Result{Edges: edges, ClassificationTruncated: truncated, ClassificationCalls: calls}
}

// applyDeterministicFamily infers the family from the components and gives
// the edge the first subtype listed for that family in types.SubtypesByFamily.
func applyDeterministicFamily(edge *types.Edge) {
	edge.Family = kernel.InferFamilyFromComponents(edge.Components, proximityToDistance(edge.Components.IntentProximity))
	edge.Subtype = types.SubtypesByFamily[edge.Family][0]
	edge.ClassifiedByLLM = false
}

// proximityToDistance inverts the stored intent_proximity component back
// to the distance InferFamilyFromComponents expects (nil treated as 0
// proximity, i.e. maximal distance).
func proximityToDistance(proximity *float64) float64 {
	if proximity == nil {
		return 1
	}
	return 1 - *proximity
}

// componentsFor computes the full component breakdown for a pair, gated by
// the shared-concept-or-serp_overlap admission rule. ok is false when the
// pair does not pass the gate.
func componentsFor(a, b types.Node) (comp types.ComponentBreakdown, inversion bool, intentDistance float64, ok bool) {
	serp, _ := kernel.SerpOverlap(a.SerpProfile.URLs(), b.SerpProfile.URLs())
	concept, _, _, _ := kernel.ConceptOverlap(a.Signature.CanonicalConcepts, b.Signature.CanonicalConcepts)

	if concept == 0 && serp < pairGateMinSerpOverlap {
		return comp, false, 0, false
	}

	alignment, inv := kernel.PerspectiveAlignment(a.Signature.Perspective.Primary, b.Signature.Perspective.Primary)
	distance, proximity := kernel.IntentDistance(a.Signature.IntentGradient, b.Signature.IntentGradient)

	comp.SerpOverlap = &serp
	comp.ConceptOverlap = &concept
	comp.PerspectiveAlignment = &alignment
	comp.IntentProximity = &proximity
	// Entity overlap has no dedicated extraction signal in this engine's
	// intent signature; it is intentionally left nil (absent components
	// contribute 0 per kernel.SynapseStrength's absent-signal semantics).
	return comp, inv, distance, true
}

func intentDistanceFor(a, b types.Node) float64 {
	d, _ := kernel.IntentDistance(a.Signature.IntentGradient, b.Signature.IntentGradient)
	return d
}

func partitionConceptTokens(a, b types.Node) (shared, onlyA, onlyB []string) {
	aTokens, bTokens := make(map[string]bool), make(map[string]bool)
	for _, c := range a.Signature.CanonicalConcepts {
		aTokens[c.Token] = true
	}
	for _, c := range b.Signature.CanonicalConcepts {
		bTokens[c.Token] = true
	}
	for t := range aTokens {
		if bTokens[t] {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range bTokens {
		if !aTokens[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return shared, onlyA, onlyB
}
