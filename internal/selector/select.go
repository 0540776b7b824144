// Package selector scores every node against the seed, runs maximum
// marginal relevance to pick the final top-K, detects communities over the
// selected subgraph, and builds cluster signatures, labels, and centroids.
package selector

import (
	"context"
	"sort"

	"synapse/internal/kernel"
	"synapse/internal/taxonomy"
	"synapse/internal/types"
)

// Config controls the final_score weights, MMR parameters, and diversity
// caps. Weights are exposed as config (not constants) per the canonical
// four-component final_score decision recorded in the design ledger.
type Config struct {
	WeightVectorSimilarity float64 // default 0.40
	WeightSerpOverlap      float64 // default 0.30
	WeightIntentMatch      float64 // default 0.15
	WeightConceptOverlap   float64 // default 0.15

	MMRLambda        float64 // default 0.75
	TargetCount      int     // default 50 (K)
	MaxSamePerFacet  int     // default 12
	MaxNearDuplicate int     // default 5
}

func (c Config) withDefaults() Config {
	if c.WeightVectorSimilarity == 0 && c.WeightSerpOverlap == 0 && c.WeightIntentMatch == 0 && c.WeightConceptOverlap == 0 {
		c.WeightVectorSimilarity, c.WeightSerpOverlap, c.WeightIntentMatch, c.WeightConceptOverlap = 0.40, 0.30, 0.15, 0.15
	}
	if c.MMRLambda == 0 {
		c.MMRLambda = 0.75
	}
	if c.TargetCount == 0 {
		c.TargetCount = 50
	}
	if c.MaxSamePerFacet == 0 {
		c.MaxSamePerFacet = 12
	}
	if c.MaxNearDuplicate == 0 {
		c.MaxNearDuplicate = 5
	}
	return c
}

// Scored is a node with its final_score breakdown against the seed.
type Scored struct {
	Node             types.Node
	VectorSimilarity float64
	SerpOverlap      float64
	IntentMatch      float64
	ConceptOverlap   float64
	FinalScore       float64
}

// ScoreAgainstSeed computes the final_score breakdown for every non-seed
// node.
func ScoreAgainstSeed(seed types.Node, nodes []types.Node, cfg Config) []Scored {
	cfg = cfg.withDefaults()
	out := make([]Scored, 0, len(nodes))
	for _, n := range nodes {
		if n.ID() == seed.ID() {
			continue
		}
		serp, _ := kernel.SerpOverlap(seed.SerpProfile.URLs(), n.SerpProfile.URLs())
		concept, _, _, _ := kernel.ConceptOverlap(seed.Signature.CanonicalConcepts, n.Signature.CanonicalConcepts)
		_, intentProximity := kernel.IntentDistance(seed.Signature.IntentGradient, n.Signature.IntentGradient)
		vecSim := cosineSimilarity(seed.Signature.VectorFingerprint, n.Signature.VectorFingerprint)

		final := cfg.WeightVectorSimilarity*vecSim + cfg.WeightSerpOverlap*serp +
			cfg.WeightIntentMatch*intentProximity + cfg.WeightConceptOverlap*concept

		out = append(out, Scored{
			Node:             n,
			VectorSimilarity: vecSim,
			SerpOverlap:      serp,
			IntentMatch:      intentProximity,
			ConceptOverlap:   concept,
			FinalScore:       types.Clamp01(final),
		})
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (sqrt(na) * sqrt(nb))
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

// Select runs MMR over the scored pool and returns the selected nodes in
// selection order.
func Select(scored []Scored, cfg Config) []Scored {
	cfg = cfg.withDefaults()
	if len(scored) == 0 {
		return nil
	}

	items := make([]kernel.MMRItem, len(scored))
	for i, s := range scored {
		items[i] = kernel.MMRItem{
			ID:        s.Node.ID(),
			Phrase:    s.Node.Phrase.Text,
			Relevance: s.FinalScore,
			Facet:     s.Node.Phrase.HeadTerm(),
		}
	}

	similarity := func(i, j int) float64 {
		return cosineSimilarity(scored[i].Node.Signature.VectorFingerprint, scored[j].Node.Signature.VectorFingerprint)
	}

	selected := kernel.MMRSelect(items, similarity, cfg.MMRLambda, cfg.TargetCount, cfg.MaxSamePerFacet, cfg.MaxNearDuplicate)
	out := make([]Scored, len(selected))
	for i, idx := range selected {
		out[i] = scored[idx]
	}
	return out
}

// ClusterSelected runs community detection over the edges connecting the
// selected nodes, then labels and positions each resulting cluster. Cluster
// labelling always uses the deterministic DominantToken fallback: the
// adapter contract has no dedicated cluster-labelling LLM operation (only
// intentExtraction and synapseClassification), so there is no LLM path to
// spend budget on here.
func ClusterSelected(ctx context.Context, selected []Scored, edges []types.Edge) []types.Cluster {
	if len(selected) == 0 {
		return nil
	}

	nodeIDs := make([]string, len(selected))
	sigByID := make(map[string]types.IntentSignature, len(selected))
	relevanceByID := make(map[string]float64, len(selected))
	for i, s := range selected {
		nodeIDs[i] = s.Node.ID()
		sigByID[s.Node.ID()] = s.Node.Signature
		relevanceByID[s.Node.ID()] = s.FinalScore
	}
	selectedSet := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		selectedSet[id] = true
	}

	var weightedEdges []kernel.WeightedEdge
	for _, e := range edges {
		if selectedSet[e.SourceID] && selectedSet[e.TargetID] {
			weightedEdges = append(weightedEdges, kernel.WeightedEdge{A: e.SourceID, B: e.TargetID, Weight: e.SelectionStrength})
		}
	}

	partition := kernel.DetectCommunities(nodeIDs, weightedEdges)
	cohesionByCommunity := intraClusterCohesion(partition.Assignment, weightedEdges)

	byCommunity := make(map[int][]string)
	for id, c := range partition.Assignment {
		byCommunity[c] = append(byCommunity[c], id)
	}

	communityIdx := make([]int, 0, len(byCommunity))
	for c := range byCommunity {
		communityIdx = append(communityIdx, c)
	}
	sort.Ints(communityIdx)

	clusters := make([]types.Cluster, 0, len(communityIdx))
	for _, c := range communityIdx {
		members := byCommunity[c]
		sort.Strings(members)

		sigs := make([]types.IntentSignature, len(members))
		weights := make([]float64, len(members))
		for i, id := range members {
			sigs[i] = sigByID[id]
			weights[i] = relevanceByID[id]
		}
		agg := kernel.AggregateClusterSignature(sigs, weights)

		label := kernel.DominantToken(agg.VectorFingerprint, taxonomy.Tokens)

		clusters = append(clusters, types.Cluster{
			ID:        clusterID(c),
			NodeIDs:   members,
			Label:     label,
			Cohesion:  cohesionByCommunity[c],
			CentroidX: agg.MeanIntentGradient,
			CentroidY: float64(kernel.PerspectiveOrdinal(agg.DominantPerspective)),
		})
	}
	return clusters
}

// intraClusterCohesion returns, per community index, the average
// SelectionStrength among edges whose endpoints both fall in that community.
// Unlike the partition's overall modularity score (which ranges over
// [-1/2, 1] and can be negative), this stays within [0,1] because
// SelectionStrength itself is clamped to that range. A community with no
// internal edges (a singleton, or a set of selected nodes with no surviving
// synapse between them) has no internal evidence of cohesion, so it gets 0.
func intraClusterCohesion(assignment map[string]int, edges []kernel.WeightedEdge) map[int]float64 {
	sum := make(map[int]float64)
	count := make(map[int]int)
	for _, e := range edges {
		ca, okA := assignment[e.A]
		cb, okB := assignment[e.B]
		if !okA || !okB || ca != cb {
			continue
		}
		sum[ca] += e.Weight
		count[ca]++
	}
	cohesion := make(map[int]float64, len(count))
	for c, n := range count {
		cohesion[c] = types.Clamp01(sum[c] / float64(n))
	}
	return cohesion
}

func clusterID(c int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if c < 26 {
		return "cluster-" + string(letters[c])
	}
	return "cluster-" + string(letters[c/26]) + string(letters[c%26])
}
