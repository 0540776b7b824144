package types

import "time"

// RunProvenance records the engine/model/rules versioning and run metadata
// that accompanies every emitted artifact.
type RunProvenance struct {
	RunID          string
	EngineVersion  string
	ModelVersion   string
	RulesVersion   string
	TaxonomyVersion string
	StartedAt      time.Time
	FinishedAt     time.Time
	Truncated      bool
	TruncationReason string
	Cancelled      bool
	LowConfidence  bool
	ClassificationTruncated bool
}

// Warning is a structured, item-keyed warning surfaced on an artifact.
type Warning struct {
	Stage    string
	ItemID   string
	Category string // recoverable-per-item | recoverable-stage-degraded
	Message  string
}

// RelatedQueryItem is a single ranked entry in RelatedQueriesOutput.
type RelatedQueryItem struct {
	Phrase           Phrase             `validate:"required"`
	RelevanceScore   float64            `validate:"gte=0,lte=1"`
	VectorSimilarity float64            `validate:"gte=0,lte=1"`
	SerpOverlap      float64            `validate:"gte=0,lte=1"`
	IntentMatch      float64            `validate:"gte=0,lte=1"`
	ConceptOverlap   float64            `validate:"gte=0,lte=1"`
	Sources          []CandidateSource  `validate:"required,min=1"`
}

// ClusterSummary is the compact cluster view embedded in RelatedQueriesOutput.
type ClusterSummary struct {
	ID       string  `validate:"required"`
	Label    string  `validate:"required"`
	Size     int     `validate:"gte=0"`
	Cohesion float64 `validate:"gte=0,lte=1"`
}

// RelatedQueriesOutput is the ordered top-K artifact.
type RelatedQueriesOutput struct {
	Seed            Phrase             `validate:"required"`
	Selected        []RelatedQueryItem `validate:"required,dive"`
	Clusters        []ClusterSummary   `validate:"dive"`
	EvidenceSummary string             `validate:"required"`
	Warnings        []Warning
	Provenance      RunProvenance `validate:"required"`
}

// GraphNode is a node as rendered in GraphArtifact.
type GraphNode struct {
	ID                string           `validate:"required"`
	Phrase            Phrase           `validate:"required"`
	Signature         IntentSignature
	SerpProfileSource SerpSource
	CoordinateX       float64
	CoordinateY       float64
}

// GraphEdge is an edge as rendered in GraphArtifact.
type GraphEdge struct {
	From              string        `validate:"required"`
	To                string        `validate:"required"`
	Strength          float64       `validate:"gte=0,lte=1"`
	Family            SynapseFamily `validate:"required,oneof=EXPANSION TRANSITION BOUNDARY CONTEXTUAL"`
	Subtype           string        `validate:"required"`
	Explanation       string
	ActionableInsight string
	Contradiction     bool
	Components        ComponentBreakdown
	ClassifiedByLLM   bool
}

// GraphCluster is a cluster as rendered in GraphArtifact.
type GraphCluster struct {
	ID        string   `validate:"required"`
	Label     string   `validate:"required"`
	NodeIDs   []string `validate:"required,min=1"`
	Cohesion  float64  `validate:"gte=0,lte=1"`
	CentroidX float64
	CentroidY float64
}

// LayoutMetadata describes the intent x perspective plane used for node
// and cluster coordinates.
type LayoutMetadata struct {
	XAxis  string // "intent_gradient"
	YAxis  string // "perspective_ordinal"
	YOrder []Perspective
}

// GraphArtifact is the full node/edge/cluster graph output.
type GraphArtifact struct {
	SeedID     string      `validate:"required"`
	Nodes      []GraphNode `validate:"required,min=1,dive"`
	Edges      []GraphEdge `validate:"dive"`
	Clusters   []GraphCluster `validate:"dive"`
	Layout     LayoutMetadata
	Warnings   []Warning
	Provenance RunProvenance `validate:"required"`
}
