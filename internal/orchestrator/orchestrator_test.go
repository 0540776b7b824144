package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/adapters"
	"synapse/internal/adapters/offline"
	"synapse/internal/config"
)

// cancelingLLM delegates to the offline LLM stand-in, counting calls and
// cancelling the supplied context once a fixed number of extractions have
// completed, to simulate cancellation arriving mid-EXTRACT.
type cancelingLLM struct {
	inner       offline.LLM
	cancel      context.CancelFunc
	calls       *int32
	cancelAfter int32
}

func (c cancelingLLM) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	n := atomic.AddInt32(c.calls, 1)
	result, prov, err := c.inner.IntentExtraction(ctx, req)
	if n == c.cancelAfter {
		c.cancel()
	}
	return result, prov, err
}

func (c cancelingLLM) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	return c.inner.SynapseClassification(ctx, req)
}

func offlineDeps() Dependencies {
	kd := offline.NewKeywordData()
	llm := offline.NewLLM()
	return Dependencies{
		KeywordData:  kd,
		SerpMetadata: offline.NewSerpMetadata(),
		LLM:          llm,
	}
}

func TestRun_FullyOfflinePipelineReachesFinalized(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetCount = 5
	cfg.CandidatePoolMax = 40

	orch := New(offlineDeps(), cfg)
	result, err := orch.Run(context.Background(), "privatlån jämför räntor", "sv", "se")
	require.NoError(t, err)
	assert.Equal(t, StageFinalized, result.Stage)
	assert.NotEmpty(t, result.Graph.Nodes)
	assert.NotEmpty(t, result.RelatedQueries.Selected)
	assert.True(t, result.Graph.Provenance.LowConfidence, "offline-only run should be low_confidence since the offline LLM reports overall confidence 0.3 for every node")
	assert.NotEmpty(t, result.Graph.Layout.XAxis)
}

func TestRun_CancelledBeforeCandidatesReturnsFailedWhenNoNodes(t *testing.T) {
	cfg := config.DefaultConfig()
	orch := New(offlineDeps(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orch.Run(ctx, "loans", "en", "us")
	assert.Equal(t, StageFailed, result.Stage)
	require.Error(t, err)
}

func TestRun_CancelledMidExtractStopsDispatchingFurtherLLMCalls(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetCount = 5
	cfg.CandidatePoolMax = 6
	cfg.AdapterConcurrency = 1 // force sequential extraction so cancellation lands deterministically

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	deps := offlineDeps()
	deps.LLM = cancelingLLM{inner: offline.NewLLM(), cancel: cancel, calls: &calls, cancelAfter: 2}

	orch := New(deps, cfg)
	result, err := orch.Run(ctx, "best loans", "en", "us")
	require.NoError(t, err)

	assert.Equal(t, StageFinalized, result.Stage)
	assert.True(t, result.Graph.Provenance.Cancelled)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "no further LLM calls should happen after the cancellation checkpoint")
	assert.Less(t, len(result.Graph.Nodes), cfg.CandidatePoolMax+1, "extraction should have stopped short of the full candidate pool")
}

func TestRun_RespectsTargetCount(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetCount = 3
	cfg.CandidatePoolMax = 40

	orch := New(offlineDeps(), cfg)
	result, err := orch.Run(context.Background(), "best loans", "en", "us")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.RelatedQueries.Selected), 3)
}
