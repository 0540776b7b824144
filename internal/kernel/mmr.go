package kernel

// MMRItem is one candidate considered for maximum-marginal-relevance
// selection.
type MMRItem struct {
	ID        string
	Phrase    string // lexicographic tie-break key
	Relevance float64
	Facet     string // dominant facet (e.g. head term), used for diversity caps
}

// NearDuplicateThreshold is the similarity above which two items count
// against the near-duplicate cap.
const NearDuplicateThreshold = 0.9

// MMRSelect greedily selects up to k items maximising
// lambda*relevance - (1-lambda)*max_similarity_to_selected, subject to a
// per-facet cap and a global near-duplicate cap. similarity(i, j) must be
// symmetric and indexed into items. Returns the selected indices in
// selection order (not item order).
func MMRSelect(items []MMRItem, similarity func(i, j int) float64, lambda float64, k int, maxSamePerFacet, maxNearDuplicate int) []int {
	n := len(items)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	selected := make([]int, 0, k)
	selectedSet := make(map[int]bool, k)
	facetCounts := make(map[string]int)
	nearDupCount := 0

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0
		bestPos := -1

		for pos, cand := range remaining {
			if facetCounts[items[cand].Facet] >= maxSamePerFacet && maxSamePerFacet > 0 {
				continue
			}

			maxSim := 0.0
			dupWithSelected := false
			for _, s := range selected {
				sim := similarity(cand, s)
				if sim > maxSim {
					maxSim = sim
				}
				if sim > NearDuplicateThreshold {
					dupWithSelected = true
				}
			}
			if dupWithSelected && nearDupCount >= maxNearDuplicate && maxNearDuplicate >= 0 {
				continue
			}

			score := lambda*items[cand].Relevance - (1-lambda)*maxSim

			if bestIdx == -1 || better(items[cand], items[bestIdx], score, bestScore) {
				bestIdx = cand
				bestScore = score
				bestPos = pos
			}
		}

		if bestIdx == -1 {
			break // no eligible candidate remains under the diversity caps
		}

		for _, s := range selected {
			if similarity(bestIdx, s) > NearDuplicateThreshold {
				nearDupCount++
			}
		}
		selected = append(selected, bestIdx)
		selectedSet[bestIdx] = true
		facetCounts[items[bestIdx].Facet]++
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	return selected
}

// better reports whether candidate c (with score scoreC) should be chosen
// over the current best b (with score scoreB): higher score wins; ties
// broken by higher relevance, then lexicographic phrase order.
func better(c, b MMRItem, scoreC, scoreB float64) bool {
	if scoreC != scoreB {
		return scoreC > scoreB
	}
	if c.Relevance != b.Relevance {
		return c.Relevance > b.Relevance
	}
	return c.Phrase < b.Phrase
}
