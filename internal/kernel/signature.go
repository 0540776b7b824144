package kernel

import "synapse/internal/types"

// ClusterSignature is the aggregated fingerprint of a cluster, used both to
// label it (highest-weight token) and to position it (centroid coordinates).
type ClusterSignature struct {
	VectorFingerprint []float64
	DominantPerspective types.Perspective
	MeanIntentGradient  float64
}

// AggregateClusterSignature computes the weighted mean vector fingerprint,
// the modal perspective, and the mean intent gradient across a cluster's
// nodes. Nodes with equal weight contribute equally (weight defaults to 1
// per node; callers passing per-node relevance weights get a
// relevance-weighted centroid).
func AggregateClusterSignature(signatures []types.IntentSignature, weights []float64) ClusterSignature {
	if len(signatures) == 0 {
		return ClusterSignature{}
	}
	if weights == nil {
		weights = make([]float64, len(signatures))
		for i := range weights {
			weights[i] = 1.0
		}
	}

	vecLen := len(signatures[0].VectorFingerprint)
	fingerprint := make([]float64, vecLen)
	totalWeight := 0.0
	perspectiveWeight := map[types.Perspective]float64{}
	intentSum := 0.0

	for i, sig := range signatures {
		w := weights[i]
		totalWeight += w
		for j := 0; j < vecLen && j < len(sig.VectorFingerprint); j++ {
			fingerprint[j] += sig.VectorFingerprint[j] * w
		}
		perspectiveWeight[sig.Perspective.Primary] += w
		intentSum += sig.IntentGradient.Value * w
	}

	if totalWeight == 0 {
		return ClusterSignature{VectorFingerprint: fingerprint}
	}
	for j := range fingerprint {
		fingerprint[j] /= totalWeight
	}

	return ClusterSignature{
		VectorFingerprint:   fingerprint,
		DominantPerspective: modePerspective(perspectiveWeight),
		MeanIntentGradient:  intentSum / totalWeight,
	}
}

// modePerspective returns the perspective with the highest accumulated
// weight; ties break on the fixed display order so results are
// deterministic.
func modePerspective(weight map[types.Perspective]float64) types.Perspective {
	best := types.Perspective("")
	bestWeight := -1.0
	for _, p := range perspectiveOrder {
		w, ok := weight[p]
		if !ok {
			continue
		}
		if w > bestWeight {
			bestWeight = w
			best = p
		}
	}
	return best
}

// DominantToken returns the taxonomy token with the highest value in a
// vector fingerprint, paired with the taxonomy token list (index-aligned).
// Used as the deterministic cluster label fallback when the LLM
// cluster-labelling budget is exhausted.
func DominantToken(fingerprint []float64, tokens []string) string {
	bestIdx := -1
	bestVal := 0.0
	for i, v := range fingerprint {
		if i >= len(tokens) {
			break
		}
		if v > bestVal {
			bestVal = v
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return "NEW:UNKNOWN"
	}
	return tokens[bestIdx]
}
