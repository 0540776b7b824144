// Package adapters defines the capability-typed interfaces the core
// pipeline depends on: keyword-data, web-scrape, LLM, and SERP metadata.
// The core never embeds HTTP details; concrete adapters (genai-backed,
// offline/deterministic, sqlite-replay) are injected by the caller.
package adapters

import (
	"context"
	"time"

	"synapse/internal/types"
)

// Provenance is recorded by every adapter call: where the data came from,
// when it was observed, and (for LLM calls) which model produced it.
type Provenance struct {
	Source     string
	ObservedAt time.Time
	ModelID    string
}

// KeywordDataAdapter exposes the six keyword-data operations. Each call
// returns either a typed result or an *errs.AdapterError.
type KeywordDataAdapter interface {
	// SerpOverview returns the SERP profile for a phrase, if the provider
	// exposes one directly.
	SerpOverview(ctx context.Context, phrase types.Phrase) (types.SerpProfile, Provenance, error)
	// KeywordsExplorerOverview returns a best-available volume/relevance
	// score for a phrase.
	KeywordsExplorerOverview(ctx context.Context, phrase types.Phrase) (VolumeRecord, Provenance, error)
	// OrganicKeywords returns candidate phrases ranking for the same
	// organic results as the seed.
	OrganicKeywords(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, Provenance, error)
	// RelatedTerms returns semantically related candidate phrases.
	RelatedTerms(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, Provenance, error)
	// MatchingTerms returns candidate phrases containing the seed's terms.
	MatchingTerms(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, Provenance, error)
	// SearchSuggestions returns autocomplete-style candidate phrases.
	SearchSuggestions(ctx context.Context, phrase types.Phrase, max int) ([]types.Candidate, Provenance, error)
}

// VolumeRecord is the best-available volume/relevance signal for a phrase.
type VolumeRecord struct {
	Phrase types.Phrase
	Volume float64
}

// ScrapedPage is a fetched and lightly-parsed web page.
type ScrapedPage struct {
	URL         string
	Title       string
	Description string
	KeyConcepts []string
}

// WebScrapeAdapter is used only when the keyword-data adapter's SERP
// endpoint is unavailable or incomplete.
type WebScrapeAdapter interface {
	Search(ctx context.Context, phrase types.Phrase, max int) ([]types.SerpResult, Provenance, error)
	Scrape(ctx context.Context, url string) (ScrapedPage, Provenance, error)
	BatchScrape(ctx context.Context, urls []string) ([]ScrapedPage, Provenance, error)
}

// SerpMetadataAdapter is an optional, direct source of SerpProfile-shaped
// records, used ahead of the web-scrape fallback when available.
type SerpMetadataAdapter interface {
	FetchProfile(ctx context.Context, phrase types.Phrase) (types.SerpProfile, Provenance, error)
}

// IntentExtractionRequest is the input to the LLM's intentExtraction call.
type IntentExtractionRequest struct {
	Phrase         types.Phrase
	TaxonomyTokens []string
	SerpProfile    types.SerpProfile
}

// IntentExtractionResult is the normalized output of intentExtraction: the
// parsed signature plus the prompt version and raw text used for auditing.
type IntentExtractionResult struct {
	Signature    types.IntentSignature
	PromptVersion string
	RawResponse  string
}

// SynapseClassificationRequest is the input to synapseClassification: the
// scored component breakdown plus the concept partitions and perspectives
// of the pair being classified.
type SynapseClassificationRequest struct {
	Components     types.ComponentBreakdown
	SharedConcepts []string
	OnlyAConcepts  []string
	OnlyBConcepts  []string
	PerspectiveA   types.Perspective
	PerspectiveB   types.Perspective
	Inversion      bool
	IntentDistance float64
}

// SynapseClassificationResult is the normalized output of
// synapseClassification.
type SynapseClassificationResult struct {
	Family            types.SynapseFamily
	Subtype           string
	Explanation       string
	ActionableInsight string
	Contradiction     bool
	RiskNotes         string
	PromptVersion     string
	RawResponse       string
}

// LLMAdapter exposes the two strict-JSON LLM operations. Implementations
// are responsible for retrying on unparseable responses up to N times,
// appending a reminder to the prompt on each retry; the core observes a
// single success-or-failure per call.
type LLMAdapter interface {
	IntentExtraction(ctx context.Context, req IntentExtractionRequest) (IntentExtractionResult, Provenance, error)
	SynapseClassification(ctx context.Context, req SynapseClassificationRequest) (SynapseClassificationResult, Provenance, error)
}
