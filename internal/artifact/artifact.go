// Package artifact builds the two validated output documents: the full
// GraphArtifact and the compact RelatedQueriesOutput. Both are validated
// against struct-tag schemas before being returned; a validation failure
// here is fatal to the run.
package artifact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"synapse/internal/errs"
	"synapse/internal/kernel"
	"synapse/internal/logging"
	"synapse/internal/selector"
	"synapse/internal/types"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})
	return instance
}

// strengthThreshold is the minimum edge strength included in GraphArtifact.
// This mirrors the synapse-builder's own MinStrength floor; edges below it
// never survive that far, but the threshold is re-applied here so a future
// change to the builder's floor can't silently leak sub-threshold edges
// into the artifact.
const strengthThreshold = 0.30

// BuildGraphArtifact assembles and validates the full node/edge/cluster
// graph document.
func BuildGraphArtifact(seedID string, nodes []types.Node, edges []types.Edge, clusters []types.Cluster, provenance types.RunProvenance, warnings []types.Warning) (types.GraphArtifact, error) {
	graphNodes := make([]types.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		graphNodes = append(graphNodes, types.GraphNode{
			ID:                n.ID(),
			Phrase:            n.Phrase,
			Signature:         n.Signature,
			SerpProfileSource: n.SerpProfile.Source,
			CoordinateX:       n.Signature.IntentGradient.Value,
			CoordinateY:       float64(kernel.PerspectiveOrdinal(n.Signature.Perspective.Primary)),
		})
	}
	sort.Slice(graphNodes, func(i, j int) bool { return graphNodes[i].ID < graphNodes[j].ID })

	graphEdges := make([]types.GraphEdge, 0, len(edges))
	for _, e := range edges {
		if e.Strength < strengthThreshold {
			continue
		}
		graphEdges = append(graphEdges, types.GraphEdge{
			From:              e.SourceID,
			To:                e.TargetID,
			Strength:          e.Strength,
			Family:            e.Family,
			Subtype:           e.Subtype,
			Explanation:       e.Explanation,
			ActionableInsight: e.ActionableInsight,
			Contradiction:     e.Contradiction,
			Components:        e.Components,
			ClassifiedByLLM:   e.ClassifiedByLLM,
		})
	}
	sort.Slice(graphEdges, func(i, j int) bool {
		if graphEdges[i].From != graphEdges[j].From {
			return graphEdges[i].From < graphEdges[j].From
		}
		return graphEdges[i].To < graphEdges[j].To
	})

	graphClusters := make([]types.GraphCluster, len(clusters))
	for i, c := range clusters {
		graphClusters[i] = types.GraphCluster{
			ID:        c.ID,
			Label:     c.Label,
			NodeIDs:   c.NodeIDs,
			Cohesion:  c.Cohesion,
			CentroidX: c.CentroidX,
			CentroidY: c.CentroidY,
		}
	}
	sort.Slice(graphClusters, func(i, j int) bool { return graphClusters[i].ID < graphClusters[j].ID })

	artifact := types.GraphArtifact{
		SeedID:   seedID,
		Nodes:    graphNodes,
		Edges:    graphEdges,
		Clusters: graphClusters,
		Layout: types.LayoutMetadata{
			XAxis:  "intent_gradient",
			YAxis:  "perspective_ordinal",
			YOrder: kernel.PerspectiveDisplayOrder(),
		},
		Warnings:   warnings,
		Provenance: provenance,
	}

	if err := getValidator().Struct(artifact); err != nil {
		logging.ArtifactError("graph artifact failed schema validation: %v", err)
		return types.GraphArtifact{}, errs.New("EMIT", errs.ValidationFailure, seedID, fmt.Errorf("graph artifact: %w", err))
	}
	return artifact, nil
}

// BuildRelatedQueriesOutput assembles and validates the compact ranked
// output document.
func BuildRelatedQueriesOutput(seed types.Phrase, scored []selector.Scored, clusters []types.Cluster, evidenceSummary string, provenance types.RunProvenance, warnings []types.Warning) (types.RelatedQueriesOutput, error) {
	selected := make([]types.RelatedQueryItem, len(scored))
	for i, s := range scored {
		selected[i] = types.RelatedQueryItem{
			Phrase:           s.Node.Phrase,
			RelevanceScore:   s.FinalScore,
			VectorSimilarity: s.VectorSimilarity,
			SerpOverlap:      s.SerpOverlap,
			IntentMatch:      s.IntentMatch,
			ConceptOverlap:   s.ConceptOverlap,
			Sources:          s.Node.Sources,
		}
	}

	summaries := make([]types.ClusterSummary, len(clusters))
	for i, c := range clusters {
		summaries[i] = types.ClusterSummary{
			ID:       c.ID,
			Label:    c.Label,
			Size:     len(c.NodeIDs),
			Cohesion: c.Cohesion,
		}
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	output := types.RelatedQueriesOutput{
		Seed:            seed,
		Selected:        selected,
		Clusters:        summaries,
		EvidenceSummary: evidenceSummary,
		Warnings:        warnings,
		Provenance:      provenance,
	}

	if err := getValidator().Struct(output); err != nil {
		logging.ArtifactError("related queries output failed schema validation: %v", err)
		return types.RelatedQueriesOutput{}, errs.New("EMIT", errs.ValidationFailure, seed.ID(), fmt.Errorf("related queries output: %w", err))
	}
	return output, nil
}
