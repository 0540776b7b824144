// Package kernel holds the pure, side-effect-free scoring and selection
// functions that compare nodes and build the graph: overlap measures,
// distance measures, synapse strength, MMR selection, and community
// detection. Nothing here performs I/O or retains state across calls.
package kernel

import (
	"sort"

	"synapse/internal/types"
)

// SerpOverlap computes Jaccard overlap over two result-URL sets. Per
// contract, it returns 0 unless both lists have at least 3 URLs.
func SerpOverlap(urlsA, urlsB []string) (overlap float64, shared []string) {
	if len(urlsA) < 3 || len(urlsB) < 3 {
		return 0, nil
	}
	setA := toSet(urlsA)
	setB := toSet(urlsB)

	sharedSet := map[string]struct{}{}
	union := map[string]struct{}{}
	for u := range setA {
		union[u] = struct{}{}
		if _, ok := setB[u]; ok {
			sharedSet[u] = struct{}{}
		}
	}
	for u := range setB {
		union[u] = struct{}{}
	}
	if len(union) == 0 {
		return 0, nil
	}
	shared = sortedKeys(sharedSet)
	return float64(len(sharedSet)) / float64(len(union)), shared
}

// ConceptOverlap computes weighted Jaccard overlap between two sets of
// canonical concepts: sum of min(weightA, weightB) over shared tokens,
// divided by sum of max(weightA, weightB) over the union of tokens.
func ConceptOverlap(conceptsA, conceptsB []types.CanonicalConcept) (overlap float64, shared, onlyA, onlyB []string) {
	weightsA := weightByToken(conceptsA)
	weightsB := weightByToken(conceptsB)

	var numerator, denominator float64
	seen := map[string]struct{}{}

	for token, wa := range weightsA {
		seen[token] = struct{}{}
		wb, inB := weightsB[token]
		if inB {
			numerator += minF(wa, wb)
			denominator += maxF(wa, wb)
			shared = append(shared, token)
		} else {
			denominator += wa
			onlyA = append(onlyA, token)
		}
	}
	for token, wb := range weightsB {
		if _, already := seen[token]; already {
			continue
		}
		denominator += wb
		onlyB = append(onlyB, token)
	}

	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	if denominator == 0 {
		return 0, shared, onlyA, onlyB
	}
	return numerator / denominator, shared, onlyA, onlyB
}

func weightByToken(concepts []types.CanonicalConcept) map[string]float64 {
	out := make(map[string]float64, len(concepts))
	for _, c := range concepts {
		if w, ok := out[c.Token]; !ok || c.Weight > w {
			out[c.Token] = c.Weight
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
