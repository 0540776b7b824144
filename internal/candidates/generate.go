// Package candidates generates and merges the pool of phrases considered
// for a run: one call per configured keyword-data operation, deduplicated
// by phrase identity, falling back to an LLM-only facet-expansion round
// when every keyword-data operation fails.
package candidates

import (
	"context"
	"fmt"
	"sort"

	"synapse/internal/adapters"
	"synapse/internal/errs"
	"synapse/internal/logging"
	"synapse/internal/types"
)

// Config controls pool sizing.
type Config struct {
	PerSourceMax int // default 200
	PoolMax      int // default 800
}

func (c Config) withDefaults() Config {
	if c.PerSourceMax <= 0 {
		c.PerSourceMax = 200
	}
	if c.PoolMax <= 0 {
		c.PoolMax = 800
	}
	return c
}

// operation names a single keyword-data call for warning/provenance
// bookkeeping.
type operation struct {
	name string
	call func(context.Context, adapters.KeywordDataAdapter, types.Phrase, int) ([]types.Candidate, adapters.Provenance, error)
}

var operations = []operation{
	{"organic_keywords", func(ctx context.Context, a adapters.KeywordDataAdapter, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
		return a.OrganicKeywords(ctx, p, max)
	}},
	{"related_terms", func(ctx context.Context, a adapters.KeywordDataAdapter, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
		return a.RelatedTerms(ctx, p, max)
	}},
	{"matching_terms", func(ctx context.Context, a adapters.KeywordDataAdapter, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
		return a.MatchingTerms(ctx, p, max)
	}},
	{"search_suggestions", func(ctx context.Context, a adapters.KeywordDataAdapter, p types.Phrase, max int) ([]types.Candidate, adapters.Provenance, error) {
		return a.SearchSuggestions(ctx, p, max)
	}},
}

// Result is the outcome of Generate: the merged, deduplicated, ordered
// candidate pool plus whether every keyword-data operation failed (in
// which case Warnings also carries a stage-degraded entry).
type Result struct {
	Candidates    []types.Candidate
	AllFailed     bool
	Warnings      []*errs.RunError
}

// Generate runs every configured keyword-data operation for the seed
// phrase, merges the results by Phrase identity (retaining the union of
// source tags and the best-available volume score), caps the pool at
// PoolMax, and orders the result by best-available volume (descending,
// missing scores last) then lexicographic phrase text. If every operation
// fails, it falls back to the offline/LLM facet-expansion path supplied by
// fallback. A nil kd counts as every operation failing; a nil fallback
// leaves the pool empty.
func Generate(ctx context.Context, kd adapters.KeywordDataAdapter, seed types.Phrase, cfg Config, fallback func(context.Context, types.Phrase, int) ([]types.Candidate, error)) Result {
	cfg = cfg.withDefaults()

	byID := make(map[string]*types.Candidate)
	var warnings []*errs.RunError
	successCount := 0

	for _, op := range operations {
		if kd == nil {
			break
		}
		results, _, err := op.call(ctx, kd, seed, cfg.PerSourceMax)
		if err != nil {
			logging.CandidatesWarn("operation %s failed: %v", op.name, err)
			warnings = append(warnings, errs.New("CANDIDATES", errs.RecoverablePerItem, op.name, err))
			continue
		}
		successCount++
		mergeInto(byID, results)
	}

	if successCount == 0 {
		logging.CandidatesWarn("all keyword-data operations failed, falling back to facet expansion")
		warnings = append(warnings, errs.New("CANDIDATES", errs.RecoverableStageDegraded, "keyword_data", fmt.Errorf("all keyword-data operations failed")))
		if fallback == nil {
			return Result{AllFailed: true, Warnings: warnings}
		}
		fallbackCandidates, ferr := fallback(ctx, seed, cfg.PerSourceMax)
		if ferr != nil {
			logging.CandidatesWarn("facet expansion fallback also failed: %v", ferr)
			return Result{AllFailed: true, Warnings: warnings}
		}
		mergeInto(byID, fallbackCandidates)
		return Result{Candidates: finalize(byID, cfg.PoolMax), AllFailed: true, Warnings: warnings}
	}

	return Result{Candidates: finalize(byID, cfg.PoolMax), Warnings: warnings}
}

func mergeInto(byID map[string]*types.Candidate, results []types.Candidate) {
	for _, c := range results {
		id := c.Phrase.ID()
		existing, ok := byID[id]
		if !ok {
			cc := c
			byID[id] = &cc
			continue
		}
		for _, s := range c.Sources {
			existing.AddSource(s)
		}
		if c.Score != nil && (existing.Score == nil || *c.Score > *existing.Score) {
			existing.Score = c.Score
		}
		existing.Tags = append(existing.Tags, c.Tags...)
	}
}

func finalize(byID map[string]*types.Candidate, poolMax int) []types.Candidate {
	out := make([]types.Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Score, out[j].Score
		switch {
		case si != nil && sj != nil && *si != *sj:
			return *si > *sj
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		default:
			return out[i].Phrase.Text < out[j].Phrase.Text
		}
	})
	if len(out) > poolMax {
		out = out[:poolMax]
	}
	return out
}
