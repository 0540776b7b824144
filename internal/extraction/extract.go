// Package extraction turns a Candidate into a Node: it resolves a
// SerpProfile (trying keyword-data, then web-scrape, then an offline
// synthetic fallback), calls the LLM's intentExtraction, and applies the
// confidence-capping rules for low-evidence nodes.
package extraction

import (
	"context"

	"synapse/internal/adapters"
	"synapse/internal/errs"
	"synapse/internal/logging"
	"synapse/internal/types"
)

// offlineConfidenceCap is the ceiling applied to every field-level and
// overall confidence when a node's SerpProfile source is offline_synthetic
// or its only candidate provenance is edge_seeding.
const offlineConfidenceCap = 0.55

// Sources bundles the collaborators a single extraction needs.
type Sources struct {
	KeywordData adapters.KeywordDataAdapter // may be nil
	WebScrape   adapters.WebScrapeAdapter   // may be nil
	Offline     adapters.SerpMetadataAdapter
	LLM         adapters.LLMAdapter
	TaxonomyTokens []string
}

// Extract resolves a SerpProfile for candidate.Phrase and runs
// intentExtraction against it, returning a fully normalized Node. It never
// returns an error for a missing/degraded SERP source — that degrades the
// node's confidence instead — but does return an *errs.RunError if the LLM
// call itself fails after all adapter-level retries.
func Extract(ctx context.Context, candidate types.Candidate, src Sources) (types.Node, error) {
	if err := ctx.Err(); err != nil {
		return types.Node{}, errs.New("EXTRACT", errs.RecoverablePerItem, candidate.Phrase.ID(), err)
	}

	profile, degraded := resolveSerpProfile(ctx, candidate.Phrase, src)

	if err := ctx.Err(); err != nil {
		return types.Node{}, errs.New("EXTRACT", errs.RecoverablePerItem, candidate.Phrase.ID(), err)
	}

	result, _, err := src.LLM.IntentExtraction(ctx, adapters.IntentExtractionRequest{
		Phrase:         candidate.Phrase,
		TaxonomyTokens: src.TaxonomyTokens,
		SerpProfile:    profile,
	})
	if err != nil {
		return types.Node{}, errs.New("EXTRACT", errs.RecoverablePerItem, candidate.Phrase.ID(), err)
	}

	sig := result.Signature
	if degraded || profile.Source == types.SerpSourceOfflineSynthetic || candidate.HasOnlyEdgeSeeding() {
		sig.CapConfidence(offlineConfidenceCap)
		sig.AddEvidence("no_serp")
	}

	return types.Node{
		Phrase:      candidate.Phrase,
		Signature:   sig,
		SerpProfile: profile,
		Sources:     candidate.Sources,
	}, nil
}

// resolveSerpProfile tries the keyword-data adapter's SERP endpoint, then
// the web-scrape adapter, then falls back to the offline synthetic source.
// degraded reports whether the live path was unavailable.
func resolveSerpProfile(ctx context.Context, phrase types.Phrase, src Sources) (types.SerpProfile, bool) {
	if src.KeywordData != nil {
		profile, _, err := src.KeywordData.SerpOverview(ctx, phrase)
		if err == nil && len(profile.Results) > 0 {
			if profile.IntentDist == nil {
				profile.ComputeDistributions()
			}
			return profile, false
		}
		logging.ExtractionWarn("keyword-data SERP overview unavailable for %s: %v", phrase.Text, err)
	}
	if src.WebScrape != nil {
		results, _, err := src.WebScrape.Search(ctx, phrase, 10)
		if err == nil && len(results) > 0 {
			profile := types.SerpProfile{Query: phrase, Market: phrase.Market, Source: types.SerpSourceScraped, Results: results}
			profile.ComputeDistributions()
			return profile, false
		}
		logging.ExtractionWarn("web-scrape search unavailable for %s: %v", phrase.Text, err)
	}
	if src.Offline != nil {
		profile, _, _ := src.Offline.FetchProfile(ctx, phrase)
		return profile, true
	}
	profile := types.SerpProfile{Query: phrase, Market: phrase.Market, Source: types.SerpSourceOfflineSynthetic}
	return profile, true
}
