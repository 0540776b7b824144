package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/adapters"
	"synapse/internal/adapters/offline"
	"synapse/internal/types"
)

func TestExtract_LiveSerpNoCapping(t *testing.T) {
	kd := liveKeywordData{}
	llm := richLLM{}
	node, err := Extract(context.Background(), types.Candidate{Phrase: types.NewPhrase("best loans", "en", "us")}, Sources{
		KeywordData: kd,
		LLM:         llm,
	})
	require.NoError(t, err)
	assert.Equal(t, types.SerpSourceLive, node.SerpProfile.Source)
	assert.False(t, node.Signature.HasEvidence("no_serp"))
	assert.InDelta(t, 0.9, node.Signature.ConfidenceByField.Overall, 1e-9)
}

func TestExtract_EdgeSeedingCandidateCapsConfidence(t *testing.T) {
	c := types.Candidate{Phrase: types.NewPhrase("loans near me", "en", "us")}
	c.AddSource(types.SourceEdgeSeeding)

	node, err := Extract(context.Background(), c, Sources{
		KeywordData: liveKeywordData{}, // live SERP still available, only candidate provenance is edge_seeding
		LLM:         richLLM{},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, node.Signature.ConfidenceByField.Overall, offlineConfidenceCap)
	assert.True(t, node.Signature.HasEvidence("no_serp"))
}

func TestExtract_FallsBackToOfflineWhenNoLiveSourceConfigured(t *testing.T) {
	node, err := Extract(context.Background(), types.Candidate{Phrase: types.NewPhrase("loans", "en", "us")}, Sources{
		Offline: offline.NewSerpMetadata(),
		LLM:     richLLM{},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, node.Signature.ConfidenceByField.Overall, offlineConfidenceCap)
	assert.True(t, node.Signature.HasEvidence("no_serp"))
}

func TestExtract_CancelledContextNeverCallsLLM(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := countingLLM{}
	_, err := Extract(ctx, types.Candidate{Phrase: types.NewPhrase("loans", "en", "us")}, Sources{
		KeywordData: liveKeywordData{},
		LLM:         &llm,
	})
	require.Error(t, err)
	assert.Equal(t, 0, llm.calls)
}

// countingLLM counts its invocations; the test asserts the count stays at
// zero to prove a cancelled context short-circuits Extract before the LLM
// call.
type countingLLM struct {
	calls int
}

func (c *countingLLM) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	c.calls++
	return adapters.IntentExtractionResult{}, adapters.Provenance{}, nil
}

func (c *countingLLM) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	c.calls++
	return adapters.SynapseClassificationResult{}, adapters.Provenance{}, nil
}

type liveKeywordData struct{}

func (liveKeywordData) SerpOverview(ctx context.Context, p types.Phrase) (types.SerpProfile, adapters.Provenance, error) {
	profile := types.SerpProfile{
		Query:   p,
		Market:  p.Market,
		Source:  types.SerpSourceLive,
		Results: []types.SerpResult{{Rank: 1, URL: "https://a.example", Title: "A"}, {Rank: 2, URL: "https://b.example"}, {Rank: 3, URL: "https://c.example"}},
	}
	return profile, adapters.Provenance{}, nil
}
func (liveKeywordData) KeywordsExplorerOverview(ctx context.Context, p types.Phrase) (adapters.VolumeRecord, adapters.Provenance, error) {
	return adapters.VolumeRecord{}, adapters.Provenance{}, nil
}
func (liveKeywordData) OrganicKeywords(ctx context.Context, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return nil, adapters.Provenance{}, nil
}
func (liveKeywordData) RelatedTerms(ctx context.Context, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return nil, adapters.Provenance{}, nil
}
func (liveKeywordData) MatchingTerms(ctx context.Context, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return nil, adapters.Provenance{}, nil
}
func (liveKeywordData) SearchSuggestions(ctx context.Context, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return nil, adapters.Provenance{}, nil
}

type richLLM struct{}

func (richLLM) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	sig := types.IntentSignature{
		ConfidenceByField: types.FieldConfidences{Overall: 0.9},
	}
	return adapters.IntentExtractionResult{Signature: sig}, adapters.Provenance{}, nil
}
func (richLLM) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	return adapters.SynapseClassificationResult{}, adapters.Provenance{}, nil
}
