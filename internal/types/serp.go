package types

import "time"

// SerpSource is the provenance tag for a SerpProfile.
type SerpSource string

const (
	SerpSourceLive             SerpSource = "live"
	SerpSourceAhrefsCached     SerpSource = "ahrefs_cached"
	SerpSourceFirecrawl        SerpSource = "firecrawl"
	SerpSourceScraped          SerpSource = "scraped"
	SerpSourceOfflineSynthetic SerpSource = "offline_synthetic"
)

// SerpResult is a single ranked result in a SerpProfile.
type SerpResult struct {
	Rank        int
	URL         string
	Title       string
	Description string
	PageType    PageArchetype
	Perspective Perspective
	Intent      IntentLabel
	KeyConcepts []string
}

// SerpProfile is a snapshot of a phrase's top search results plus derived
// distributions over the top-5 results.
type SerpProfile struct {
	Query      Phrase
	Market     string
	FetchedAt  time.Time
	Source     SerpSource
	Results    []SerpResult
	IntentDist map[IntentLabel]float64
	PerspectiveDist map[Perspective]float64
	PageTypeDist map[PageArchetype]float64
}

// URLs returns the ordered list of result URLs, used by the SERP-overlap
// kernel function.
func (p SerpProfile) URLs() []string {
	out := make([]string, len(p.Results))
	for i, r := range p.Results {
		out[i] = r.URL
	}
	return out
}

// ComputeDistributions fills IntentDist/PerspectiveDist/PageTypeDist from
// the top-5 results. Safe to call on a profile with fewer than 5 results.
func (p *SerpProfile) ComputeDistributions() {
	top := p.Results
	if len(top) > 5 {
		top = top[:5]
	}
	p.IntentDist = map[IntentLabel]float64{}
	p.PerspectiveDist = map[Perspective]float64{}
	p.PageTypeDist = map[PageArchetype]float64{}
	if len(top) == 0 {
		return
	}
	inc := 1.0 / float64(len(top))
	for _, r := range top {
		if r.Intent != "" {
			p.IntentDist[r.Intent] += inc
		}
		if r.Perspective != "" {
			p.PerspectiveDist[r.Perspective] += inc
		}
		if r.PageType != "" {
			p.PageTypeDist[r.PageType] += inc
		}
	}
}
