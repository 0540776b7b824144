// Package offline provides deterministic, no-network implementations of
// every capability interface in internal/adapters. They back the
// edge_seeding candidate-generation fallback and the offline_synthetic
// SERP profile path, and double as fixtures for tests that must not hit a
// real provider.
package offline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"synapse/internal/adapters"
	"synapse/internal/taxonomy"
	"synapse/internal/types"
)

// facetSuffixes is the fixed list of modifiers used to synthesize
// plausible related phrases deterministically from a seed, standing in
// for a real keyword-data provider when none is configured.
var facetSuffixes = []string{
	"cost", "reviews", "near me", "vs alternatives", "for beginners",
	"pros and cons", "guide", "calculator", "eligibility", "requirements",
}

// KeywordData is a deterministic stand-in for a real keyword-data
// provider: every phrase it proposes carries CandidateSource ==
// SourceEdgeSeeding, which HasOnlyEdgeSeeding uses downstream to cap
// confidence at 0.55.
type KeywordData struct{}

func NewKeywordData() KeywordData { return KeywordData{} }

func (KeywordData) SerpOverview(ctx context.Context, phrase types.Phrase) (types.SerpProfile, adapters.Provenance, error) {
	return syntheticProfile(phrase), adapters.Provenance{Source: "offline"}, nil
}

func (KeywordData) KeywordsExplorerOverview(ctx context.Context, phrase types.Phrase) (adapters.VolumeRecord, adapters.Provenance, error) {
	return adapters.VolumeRecord{Phrase: phrase, Volume: 0}, adapters.Provenance{Source: "offline"}, nil
}

func (KeywordData) OrganicKeywords(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return synthesizeCandidates(phrase, max, types.SourceEdgeSeeding), adapters.Provenance{Source: "offline"}, nil
}

func (KeywordData) RelatedTerms(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return synthesizeCandidates(phrase, max, types.SourceEdgeSeeding), adapters.Provenance{Source: "offline"}, nil
}

func (KeywordData) MatchingTerms(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return synthesizeCandidates(phrase, max, types.SourceEdgeSeeding), adapters.Provenance{Source: "offline"}, nil
}

func (KeywordData) SearchSuggestions(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
	return synthesizeCandidates(phrase, max, types.SourceEdgeSeeding), adapters.Provenance{Source: "offline"}, nil
}

func synthesizeCandidates(phrase types.Phrase, max int, source types.CandidateSource) []types.Candidate {
	if max <= 0 || max > len(facetSuffixes) {
		max = len(facetSuffixes)
	}
	out := make([]types.Candidate, 0, max)
	for i := 0; i < max; i++ {
		text := fmt.Sprintf("%s %s", phrase.Text, facetSuffixes[i])
		c := types.Candidate{Phrase: types.NewPhrase(text, phrase.Language, phrase.Market)}
		c.AddSource(source)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase.Text < out[j].Phrase.Text })
	return out
}

func syntheticProfile(phrase types.Phrase) types.SerpProfile {
	results := make([]types.SerpResult, 0, 5)
	archetypes := []types.PageArchetype{types.FormatListicle, types.FormatGuide, types.FormatComparison, types.FormatProductPage, types.FormatForumThread}
	perspectives := []types.Perspective{types.PerspectiveAdvisor, types.PerspectiveEducator, types.PerspectiveProvider, types.PerspectiveProvider, types.PerspectiveSeeker}
	intents := []types.IntentLabel{types.IntentInformational, types.IntentEducational, types.IntentComparison, types.IntentTransactional, types.IntentInvestigational}
	for i := 0; i < 5; i++ {
		results = append(results, types.SerpResult{
			Rank:        i + 1,
			URL:         fmt.Sprintf("https://example-offline.invalid/%s/%d", slug(phrase.Text), i+1),
			Title:       strings.Title(phrase.Text),
			Description: fmt.Sprintf("Synthetic offline result %d for %q", i+1, phrase.Text),
			PageType:    archetypes[i],
			Perspective: perspectives[i],
			Intent:      intents[i],
			KeyConcepts: nil,
		})
	}
	p := types.SerpProfile{
		Query:     phrase,
		Market:    phrase.Market,
		FetchedAt: time.Time{},
		Source:    types.SerpSourceOfflineSynthetic,
		Results:   results,
	}
	p.ComputeDistributions()
	return p
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

// SerpMetadata is a deterministic stand-in for a direct SERP-metadata
// provider, implementing adapters.SerpMetadataAdapter.
type SerpMetadata struct{}

func NewSerpMetadata() SerpMetadata { return SerpMetadata{} }

func (SerpMetadata) FetchProfile(ctx context.Context, phrase types.Phrase) (types.SerpProfile, adapters.Provenance, error) {
	return syntheticProfile(phrase), adapters.Provenance{Source: "offline"}, nil
}

// WebScrape is a deterministic stand-in for a real scraping provider.
type WebScrape struct{}

func NewWebScrape() WebScrape { return WebScrape{} }

func (WebScrape) Search(ctx context.Context, phrase types.Phrase, max int) ([]types.SerpResult, adapters.Provenance, error) {
	return syntheticProfile(phrase).Results, adapters.Provenance{Source: "offline"}, nil
}

func (WebScrape) Scrape(ctx context.Context, url string) (adapters.ScrapedPage, adapters.Provenance, error) {
	return adapters.ScrapedPage{URL: url, Title: url, Description: "offline scrape unavailable"}, adapters.Provenance{Source: "offline"}, nil
}

func (w WebScrape) BatchScrape(ctx context.Context, urls []string) ([]adapters.ScrapedPage, adapters.Provenance, error) {
	out := make([]adapters.ScrapedPage, len(urls))
	for i, u := range urls {
		out[i], _, _ = w.Scrape(ctx, u)
	}
	return out, adapters.Provenance{Source: "offline"}, nil
}

// LLM is a deterministic, rule-based stand-in for the GenAI-backed
// adapter, used when the configured LLM provider is not "genai" (the
// default while no API key is set). It never calls out; intentExtraction
// returns a minimal signature derived from taxonomy.MapConcept over the
// phrase's own tokens, and synapseClassification defers entirely to
// kernel.InferFamilyFromComponents via the caller (this adapter returns
// an error so the caller's deterministic-fallback path is exercised
// uniformly whether the LLM is absent or merely out of budget).
type LLM struct{}

func NewLLM() LLM { return LLM{} }

func (LLM) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	concepts := make([]types.CanonicalConcept, 0, len(req.Phrase.Modifiers())+1)
	for _, tok := range req.Phrase.Tokens() {
		m := taxonomy.MapConcept(tok, req.Phrase.Market)
		concepts = append(concepts, types.CanonicalConcept{
			Token:       m.Token,
			Weight:      0.5,
			Evidence:    "offline_token_match",
			SourceTerms: types.SanitizeSourceTerms(req.Phrase.Text, []string{tok}),
			Confidence:  0.5,
		})
	}
	sig := types.IntentSignature{
		CanonicalConcepts: concepts,
		Perspective:       types.PerspectiveSignature{Primary: types.PerspectiveNeutral, Confidence: 0.3},
		IntentGradient:    types.IntentGradient{Value: 0.5, Label: types.IntentInformational, Confidence: 0.3},
		Format:            types.FormatUnknown,
		ConfidenceByField: types.FieldConfidences{Overall: 0.3},
	}
	sig.AddEvidence("no_serp")
	sig.VectorFingerprint = taxonomy.BuildVectorFingerprint(sig.CanonicalConcepts)
	return adapters.IntentExtractionResult{Signature: sig, PromptVersion: "offline-v1"}, adapters.Provenance{Source: "offline"}, nil
}

func (LLM) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	return adapters.SynapseClassificationResult{}, adapters.Provenance{}, fmt.Errorf("offline: synapseClassification has no rule-based equivalent, caller must use kernel.InferFamilyFromComponents")
}
