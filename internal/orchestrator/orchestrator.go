// Package orchestrator sequences a single run of the pipeline: intake,
// normalize, candidate generation, extraction, scoring, classification,
// selection, clustering, and emission. It is a single-threaded cooperative
// scheduler over that fixed stage sequence — each stage may dispatch many
// concurrent adapter calls internally, bounded by a concurrency cap, but
// stages themselves never overlap.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"synapse/internal/adapters"
	"synapse/internal/artifact"
	"synapse/internal/candidates"
	"synapse/internal/config"
	"synapse/internal/errs"
	"synapse/internal/extraction"
	"synapse/internal/logging"
	"synapse/internal/selector"
	"synapse/internal/synapsebuilder"
	"synapse/internal/taxonomy"
	"synapse/internal/types"
	"synapse/internal/validationgate"
)

// Stage is one of the fixed pipeline states.
type Stage string

const (
	StageIntake     Stage = "INTAKE"
	StageNormalize  Stage = "NORMALIZE"
	StageCandidates Stage = "CANDIDATES"
	StageExtract    Stage = "EXTRACT"
	StageScore      Stage = "SCORE"
	StageClassify   Stage = "CLASSIFY"
	StageSelect     Stage = "SELECT"
	StageCluster    Stage = "CLUSTER"
	StageEmit       Stage = "EMIT"
	StageFinalized  Stage = "FINALIZED"
	StageFailed     Stage = "FAILED"
)

// Dependencies bundles the capability adapters a run is wired against. Any
// field may be nil except LLM; extraction and candidate generation degrade
// gracefully around missing adapters per their own fallback chains.
type Dependencies struct {
	KeywordData   adapters.KeywordDataAdapter
	WebScrape     adapters.WebScrapeAdapter
	SerpMetadata  adapters.SerpMetadataAdapter
	LLM           adapters.LLMAdapter
	FacetFallback func(ctx context.Context, seed types.Phrase, max int) ([]types.Candidate, error)
}

// Orchestrator runs the pipeline for a single seed phrase per call.
type Orchestrator struct {
	deps Dependencies
	cfg  *config.Config
}

// New builds an Orchestrator from its adapter dependencies and config.
func New(deps Dependencies, cfg *config.Config) *Orchestrator {
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Result is the outcome of a single run.
type Result struct {
	Stage          Stage
	Graph          types.GraphArtifact
	RelatedQueries types.RelatedQueriesOutput
}

// Run executes the full pipeline for seedText, returning both output
// artifacts. A non-nil error means the run reached StageFailed: no output
// contract could be satisfied even partially.
func (o *Orchestrator) Run(ctx context.Context, seedText, language, market string) (Result, error) {
	runID := uuid.New().String()
	startedAt := time.Now()
	logging.Orchestrator("run %s starting: seed=%q language=%s market=%s", runID, seedText, language, market)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunDeadlineDuration())
	defer cancel()

	prov := types.RunProvenance{
		RunID:           runID,
		EngineVersion:   o.cfg.Version,
		RulesVersion:    "rules-v1",
		TaxonomyVersion: o.cfg.TaxonomyVersion,
		StartedAt:       startedAt,
	}
	if o.cfg.LLM.Provider == "genai" {
		prov.ModelVersion = o.cfg.LLM.Model
	}

	var warnings []types.Warning
	addWarning := func(stage, item, category, message string) {
		warnings = append(warnings, types.Warning{Stage: stage, ItemID: item, Category: category, Message: message})
	}

	// INTAKE
	seedPhrase := types.NewPhrase(seedText, language, market)
	seedCandidate := types.Candidate{Phrase: seedPhrase}
	seedCandidate.AddSource(types.SourceSeed)
	logging.Orchestrator("stage=%s seed_id=%s", StageIntake, seedPhrase.ID())

	// NORMALIZE — phrase text is normalized on construction; this stage
	// exists as an explicit cancellation checkpoint per the fixed sequence.
	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nil, nil, nil, prov, warnings, StageNormalize)
	}
	logging.Orchestrator("stage=%s", StageNormalize)

	// CANDIDATES
	logging.Orchestrator("stage=%s", StageCandidates)
	candResult := candidates.Generate(ctx, o.deps.KeywordData, seedPhrase, candidates.Config{
		PerSourceMax: 200,
		PoolMax:      o.cfg.CandidatePoolMax,
	}, o.deps.FacetFallback)
	if candResult.AllFailed {
		addWarning(string(StageCandidates), seedPhrase.ID(), errs.RecoverableStageDegraded.String(), "all keyword-data operations failed, used facet-expansion fallback")
	}
	for _, w := range candResult.Warnings {
		addWarning(string(StageCandidates), w.Item, w.Category.String(), w.Error())
	}
	pool := append([]types.Candidate{seedCandidate}, candResult.Candidates...)

	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nil, nil, nil, prov, warnings, StageCandidates)
	}

	// EXTRACT — bounded-concurrency fan-out, one call per candidate.
	logging.Orchestrator("stage=%s pool_size=%d", StageExtract, len(pool))
	nodes, extractWarnings := o.extractAll(ctx, pool)
	warnings = append(warnings, extractWarnings...)
	if len(nodes) == 0 {
		logging.OrchestratorWarn("run %s failed: no nodes survived extraction", runID)
		return Result{Stage: StageFailed}, errs.New("EXTRACT", errs.ValidationFailure, seedPhrase.ID(), fmt.Errorf("no nodes survived extraction"))
	}

	gateResult := validationgate.Evaluate(nodes, validationgate.Config{
		MinConfidence: o.cfg.MinConfidence,
		MinPassRatio:  o.cfg.MinPassRatio,
	})
	prov.LowConfidence = gateResult.LowConfidence
	if gateResult.LowConfidence {
		logging.ValidationWarn("run %s low_confidence: %d/%d nodes passed (ratio %.2f)", runID, gateResult.PassCount, gateResult.TotalCount, gateResult.PassRatio)
	}

	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nodes, nil, nil, prov, warnings, StageExtract)
	}

	// SCORE + CLASSIFY — pairwise component scoring and budgeted
	// classification happen together inside synapsebuilder.Build.
	logging.Orchestrator("stage=%s node_count=%d", StageScore, len(nodes))
	buildResult := synapsebuilder.Build(ctx, seedPhrase.ID(), nodes, o.deps.LLM, synapsebuilder.Config{
		MinStrength:          o.cfg.MinSynapseStrength,
		ClassificationBudget: o.cfg.ClassificationBudget,
	})
	prov.ClassificationTruncated = buildResult.ClassificationTruncated
	if buildResult.ClassificationTruncated {
		addWarning(string(StageClassify), seedPhrase.ID(), errs.BudgetExhausted.String(), "classification budget exhausted, remaining edges use deterministic family inference")
	}

	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nodes, buildResult.Edges, nil, prov, warnings, StageClassify)
	}

	// SELECT
	logging.Orchestrator("stage=%s", StageSelect)
	seedNode := findNode(nodes, seedPhrase.ID())
	scored := selector.ScoreAgainstSeed(seedNode, nodes, selector.Config{
		MMRLambda:        o.cfg.MMRLambda,
		TargetCount:      o.cfg.TargetCount,
		MaxSamePerFacet:  o.cfg.MaxSamePerFacet,
		MaxNearDuplicate: o.cfg.MaxNearDuplicate,
	})
	selected := selector.Select(scored, selector.Config{
		MMRLambda:        o.cfg.MMRLambda,
		TargetCount:      o.cfg.TargetCount,
		MaxSamePerFacet:  o.cfg.MaxSamePerFacet,
		MaxNearDuplicate: o.cfg.MaxNearDuplicate,
	})

	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nodes, buildResult.Edges, nil, prov, warnings, StageSelect)
	}

	// CLUSTER
	logging.Orchestrator("stage=%s selected_count=%d", StageCluster, len(selected))
	clusters := selector.ClusterSelected(ctx, selected, buildResult.Edges)

	if ctx.Err() != nil {
		return o.finalizeCancelled(seedPhrase, nodes, buildResult.Edges, clusters, prov, warnings, StageCluster)
	}

	// EMIT
	logging.Orchestrator("stage=%s", StageEmit)
	prov.FinishedAt = time.Now()
	return o.emit(seedPhrase, nodes, buildResult.Edges, selected, clusters, prov, warnings)
}

// extractAll runs extraction.Extract for every candidate concurrently,
// capped at AdapterConcurrency in-flight calls, and merges the results
// deterministically by node identity regardless of completion order.
func (o *Orchestrator) extractAll(ctx context.Context, pool []types.Candidate) ([]types.Node, []types.Warning) {
	results := make([]*types.Node, len(pool))
	errsByIndex := make([]error, len(pool))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.AdapterConcurrency)

	for i, c := range pool {
		i, c := i, c
		group.Go(func() error {
			node, err := extraction.Extract(groupCtx, c, extraction.Sources{
				KeywordData:    o.deps.KeywordData,
				WebScrape:      o.deps.WebScrape,
				Offline:        o.deps.SerpMetadata,
				LLM:            o.deps.LLM,
				TaxonomyTokens: taxonomy.Tokens,
			})
			if err != nil {
				errsByIndex[i] = err
				return nil
			}
			results[i] = &node
			return nil
		})
	}
	_ = group.Wait()

	var nodes []types.Node
	var warnings []types.Warning
	for i, n := range results {
		if n != nil {
			nodes = append(nodes, *n)
			continue
		}
		if err := errsByIndex[i]; err != nil {
			logging.ExtractionWarn("extraction failed for %s: %v", pool[i].Phrase.Text, err)
			warnings = append(warnings, types.Warning{
				Stage:    string(StageExtract),
				ItemID:   pool[i].Phrase.ID(),
				Category: errs.RecoverablePerItem.String(),
				Message:  err.Error(),
			})
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return nodes, warnings
}

func findNode(nodes []types.Node, id string) types.Node {
	for _, n := range nodes {
		if n.ID() == id {
			return n
		}
	}
	return types.Node{}
}

// emit builds both output artifacts from whatever data the run collected.
func (o *Orchestrator) emit(seedPhrase types.Phrase, nodes []types.Node, edges []types.Edge, selected []selector.Scored, clusters []types.Cluster, prov types.RunProvenance, warnings []types.Warning) (Result, error) {
	graph, err := artifact.BuildGraphArtifact(seedPhrase.ID(), nodes, edges, clusters, prov, warnings)
	if err != nil {
		logging.OrchestratorWarn("run %s failed at EMIT: graph artifact invalid: %v", prov.RunID, err)
		return Result{Stage: StageFailed}, err
	}

	evidence := evidenceSummary(nodes, prov)
	related, err := artifact.BuildRelatedQueriesOutput(seedPhrase, selected, clusters, evidence, prov, warnings)
	if err != nil {
		logging.OrchestratorWarn("run %s failed at EMIT: related queries output invalid: %v", prov.RunID, err)
		return Result{Stage: StageFailed}, err
	}

	logging.Orchestrator("run %s finalized: nodes=%d edges=%d selected=%d clusters=%d", prov.RunID, len(nodes), len(edges), len(selected), len(clusters))
	return Result{Stage: StageFinalized, Graph: graph, RelatedQueries: related}, nil
}

// finalizeCancelled stops dispatching and emits whatever partial result is
// available, flagged cancelled, per the run-level cancellation contract.
func (o *Orchestrator) finalizeCancelled(seedPhrase types.Phrase, nodes []types.Node, edges []types.Edge, clusters []types.Cluster, prov types.RunProvenance, warnings []types.Warning, atStage Stage) (Result, error) {
	logging.OrchestratorWarn("run %s cancelled at stage %s", prov.RunID, atStage)
	prov.Cancelled = true
	prov.Truncated = true
	prov.TruncationReason = fmt.Sprintf("cancelled at stage %s", atStage)
	prov.FinishedAt = time.Now()

	if len(nodes) == 0 {
		return Result{Stage: StageFailed}, errs.New(string(atStage), errs.Cancelled, seedPhrase.ID(), context.Canceled)
	}

	var selected []selector.Scored
	seedNode := findNode(nodes, seedPhrase.ID())
	if seedNode.Phrase.Text != "" {
		selected = selector.Select(selector.ScoreAgainstSeed(seedNode, nodes, selector.Config{}), selector.Config{})
	}

	return o.emit(seedPhrase, nodes, edges, selected, clusters, prov, warnings)
}

func evidenceSummary(nodes []types.Node, prov types.RunProvenance) string {
	summary := fmt.Sprintf("%d nodes extracted", len(nodes))
	if prov.LowConfidence {
		summary += "; low_confidence"
	}
	if prov.ClassificationTruncated {
		summary += "; classification_truncated"
	}
	if prov.Cancelled {
		summary += "; cancelled"
	}
	return summary
}
