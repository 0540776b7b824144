// Package llm implements adapters.LLMAdapter against Google's GenAI SDK,
// enforcing a strict-JSON response contract: markdown fences are stripped,
// every field is independently guardrailed (clamped, defaulted, or the
// owning candidate dropped), and nothing the model reports about its own
// confidence or fingerprint is trusted over what can be recomputed locally.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"synapse/internal/adapters"
	"synapse/internal/errs"
	"synapse/internal/kernel"
	"synapse/internal/logging"
	"synapse/internal/taxonomy"
	"synapse/internal/types"
)

// PromptVersion is bumped whenever the prompt templates below change in a
// way that affects response shape.
const PromptVersion = "v1"

// Config configures the GenAI-backed adapter.
type Config struct {
	APIKey      string
	Model       string // e.g. "gemini-2.0-flash"
	Temperature float64
	MaxTokens   int32
	Timeout     time.Duration
	RetryMax    int // additional attempts after a parse failure
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryMax == 0 {
		c.RetryMax = 2
	}
	return c
}

// Adapter implements adapters.LLMAdapter.
type Adapter struct {
	client *genai.Client
	cfg    Config
}

// New creates a GenAI-backed adapter. Returns an error if the API key is
// missing or the client cannot be constructed.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("llm: creating genai client: %w", err)
	}
	return &Adapter{client: client, cfg: cfg}, nil
}

// generateJSON calls the model and returns the raw text response, retrying
// up to cfg.RetryMax additional times when the generate call fails or the
// response fails validate. The validate callback attempts to unmarshal the
// response and returns a non-nil error describing what went wrong, which
// is appended to the next attempt's prompt as a reminder. Once every
// attempt has failed, the error is classified as malformed_response.
func (a *Adapter) generateJSON(ctx context.Context, category string, prompt string, validate func(raw string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	attemptPrompt := prompt
	var lastErr error
	for attempt := 0; attempt <= a.cfg.RetryMax; attempt++ {
		logging.LLMDebug("%s: attempt %d/%d", category, attempt+1, a.cfg.RetryMax+1)

		contents := []*genai.Content{genai.NewContentFromText(attemptPrompt, genai.RoleUser)}
		temp := float32(a.cfg.Temperature)
		result, err := a.client.Models.GenerateContent(ctx, a.cfg.Model, contents, &genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: a.cfg.MaxTokens,
		})
		if err != nil {
			lastErr = err
			logging.LLMWarn("%s: generate call failed on attempt %d: %v", category, attempt+1, err)
			continue
		}
		raw := result.Text()
		raw = stripCodeFence(raw)
		if verr := validate(raw); verr != nil {
			lastErr = verr
			logging.LLMWarn("%s: response failed validation on attempt %d: %v", category, attempt+1, verr)
			attemptPrompt = prompt + fmt.Sprintf("\n\nYour previous response was invalid: %v. Reply again with ONLY the corrected JSON object, no commentary.", verr)
			continue
		}
		return raw, nil
	}
	return "", errs.NewAdapterError("llm", errs.FailureMalformedResponse, fmt.Errorf("%s: exhausted %d attempts: %w", category, a.cfg.RetryMax+1, lastErr))
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// rawIntentSignature is the strict-JSON shape the model is asked to return
// for intentExtraction. It deliberately omits vector_fingerprint: that is
// always recomputed locally from canonical_concepts.
type rawIntentSignature struct {
	CanonicalConcepts []rawConcept `json:"canonical_concepts"`
	Promises          []rawConcept `json:"promises"`
	ActionVerbs       []string     `json:"action_verbs"`
	TrustSignals      []rawConcept `json:"trust_signals"`
	Perspective       struct {
		Primary    string  `json:"primary"`
		Secondary  string  `json:"secondary"`
		Confidence float64 `json:"confidence"`
		Evidence   string  `json:"evidence"`
	} `json:"perspective"`
	IntentGradient struct {
		Value      float64 `json:"value"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"intent_gradient"`
	RequiredElements       []string `json:"required_elements"`
	Format                 string   `json:"format"`
	IncompatibilityMarkers []string `json:"incompatibility_markers"`
	EmergentMeaning        string   `json:"emergent_meaning"`
	ConfidenceByField      struct {
		Concepts    float64 `json:"concepts"`
		Perspective float64 `json:"perspective"`
		Intent      float64 `json:"intent"`
		Elements    float64 `json:"elements"`
		Format      float64 `json:"format"`
		Overall     float64 `json:"overall"`
	} `json:"confidence_by_field"`
}

type rawConcept struct {
	Token       string   `json:"token"`
	Weight      float64  `json:"weight"`
	Evidence    string   `json:"evidence"`
	SourceTerms []string `json:"source_terms"`
	Confidence  float64  `json:"confidence"`
}

// IntentExtraction asks the model to produce an intent signature for a
// phrase, then guardrails every field before returning it: unknown concept
// tokens are coerced into the open-set NEW: namespace, unknown perspective
// or intent labels fall back to neutral/informational, every confidence
// is clamped to [0,1], source_terms not found in
// the phrase text are dropped, and the vector fingerprint is always
// recomputed locally rather than trusted from the response.
func (a *Adapter) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	prompt := buildIntentExtractionPrompt(req)

	var parsed rawIntentSignature
	raw, err := a.generateJSON(ctx, "intentExtraction", prompt, func(r string) error {
		return json.Unmarshal([]byte(r), &parsed)
	})
	if err != nil {
		return adapters.IntentExtractionResult{}, adapters.Provenance{}, err
	}

	sig := normalizeIntentSignature(req.Phrase.Text, parsed)

	return adapters.IntentExtractionResult{
		Signature:     sig,
		PromptVersion: PromptVersion,
		RawResponse:   raw,
	}, adapters.Provenance{Source: "genai", ObservedAt: req.SerpProfile.FetchedAt, ModelID: a.cfg.Model}, nil
}

func buildIntentExtractionPrompt(req adapters.IntentExtractionRequest) string {
	var serpSummary strings.Builder
	for _, r := range req.SerpProfile.Results {
		fmt.Fprintf(&serpSummary, "- [%d] %s — %s (%s)\n", r.Rank, r.Title, r.Description, r.URL)
	}
	return fmt.Sprintf(`You are analyzing the search query %q (market: %s).

Top search results observed:
%s

Closed concept taxonomy tokens available (use these exactly, or prefix a
novel concept with "NEW:" followed by an UPPER_SNAKE_CASE slug):
%s

Return ONLY a JSON object with this exact shape (no markdown fences, no commentary):
{
  "canonical_concepts": [{"token": "...", "weight": 0-1, "evidence": "...", "source_terms": ["..."], "confidence": 0-1}],
  "promises": [...same shape as canonical_concepts...],
  "action_verbs": ["..."],
  "trust_signals": [...same shape as canonical_concepts...],
  "perspective": {"primary": "seeker|advisor|provider|educator|regulator|neutral", "secondary": "", "confidence": 0-1, "evidence": "..."},
  "intent_gradient": {"value": 0-1, "label": "informational|educational|investigational|commercial_investigation|comparison|navigational|transactional", "confidence": 0-1},
  "required_elements": ["..."],
  "format": "listicle|comparison|guide|product_page|tool_calculator|forum_thread|news_article|landing_page|unknown",
  "incompatibility_markers": ["..."],
  "emergent_meaning": "...",
  "confidence_by_field": {"concepts": 0-1, "perspective": 0-1, "intent": 0-1, "elements": 0-1, "format": 0-1, "overall": 0-1}
}`, req.Phrase.Text, req.Phrase.Market, serpSummary.String(), strings.Join(req.TaxonomyTokens, ", "))
}

func normalizeIntentSignature(phraseText string, r rawIntentSignature) types.IntentSignature {
	sig := types.IntentSignature{
		CanonicalConcepts: normalizeConcepts(phraseText, r.CanonicalConcepts),
		Promises:          normalizeConcepts(phraseText, r.Promises),
		ActionVerbs:       r.ActionVerbs,
		TrustSignals:      normalizeConcepts(phraseText, r.TrustSignals),
		Perspective: types.PerspectiveSignature{
			Primary:    normalizePerspective(r.Perspective.Primary),
			Secondary:  normalizePerspective(r.Perspective.Secondary),
			Confidence: types.Clamp01(r.Perspective.Confidence),
			Evidence:   r.Perspective.Evidence,
		},
		IntentGradient: types.IntentGradient{
			Value:      types.Clamp01(r.IntentGradient.Value),
			Label:      normalizeIntentLabel(r.IntentGradient.Label),
			Confidence: types.Clamp01(r.IntentGradient.Confidence),
		},
		RequiredElements:       r.RequiredElements,
		Format:                 normalizeFormat(r.Format),
		IncompatibilityMarkers: r.IncompatibilityMarkers,
		EmergentMeaning:        r.EmergentMeaning,
		ConfidenceByField: types.FieldConfidences{
			Concepts:    types.Clamp01(r.ConfidenceByField.Concepts),
			Perspective: types.Clamp01(r.ConfidenceByField.Perspective),
			Intent:      types.Clamp01(r.ConfidenceByField.Intent),
			Elements:    types.Clamp01(r.ConfidenceByField.Elements),
			Format:      types.Clamp01(r.ConfidenceByField.Format),
			Overall:     types.Clamp01(r.ConfidenceByField.Overall),
		},
	}
	sig.VectorFingerprint = taxonomy.BuildVectorFingerprint(sig.CanonicalConcepts)
	return sig
}

func normalizeConcepts(phraseText string, raw []rawConcept) []types.CanonicalConcept {
	out := make([]types.CanonicalConcept, 0, len(raw))
	for _, c := range raw {
		token := strings.ToUpper(strings.TrimSpace(c.Token))
		if token == "" {
			continue
		}
		if !strings.HasPrefix(token, "NEW:") && !taxonomy.IsKnownToken(token) {
			mapped := taxonomy.MapConcept(token, "default")
			token = mapped.Token
		}
		out = append(out, types.CanonicalConcept{
			Token:       token,
			Weight:      types.Clamp01(c.Weight),
			Evidence:    c.Evidence,
			SourceTerms: types.SanitizeSourceTerms(phraseText, c.SourceTerms),
			Confidence:  types.Clamp01(c.Confidence),
		})
	}
	return out
}

var validPerspectives = map[string]types.Perspective{
	"seeker": types.PerspectiveSeeker, "advisor": types.PerspectiveAdvisor,
	"provider": types.PerspectiveProvider, "educator": types.PerspectiveEducator,
	"regulator": types.PerspectiveRegulator, "neutral": types.PerspectiveNeutral,
}

func normalizePerspective(s string) types.Perspective {
	if p, ok := validPerspectives[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return types.PerspectiveNeutral
}

var validIntentLabels = map[string]types.IntentLabel{
	"informational": types.IntentInformational, "educational": types.IntentEducational,
	"investigational": types.IntentInvestigational, "commercial_investigation": types.IntentCommercialInvestigation,
	"comparison": types.IntentComparison, "navigational": types.IntentNavigational,
	"transactional": types.IntentTransactional,
}

func normalizeIntentLabel(s string) types.IntentLabel {
	if l, ok := validIntentLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return types.IntentInformational
}

var validFormats = map[string]types.PageArchetype{
	"listicle": types.FormatListicle, "comparison": types.FormatComparison, "guide": types.FormatGuide,
	"product_page": types.FormatProductPage, "tool_calculator": types.FormatToolCalculator,
	"forum_thread": types.FormatForumThread, "news_article": types.FormatNewsArticle,
	"landing_page": types.FormatLandingPage, "unknown": types.FormatUnknown,
}

func normalizeFormat(s string) types.PageArchetype {
	if f, ok := validFormats[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return types.FormatUnknown
}

// rawSynapseClassification is the strict-JSON shape for synapseClassification.
type rawSynapseClassification struct {
	Family            string `json:"family"`
	Subtype           string `json:"subtype"`
	Explanation       string `json:"explanation"`
	ActionableInsight string `json:"actionable_insight"`
	Contradiction     bool   `json:"contradiction"`
	RiskNotes         string `json:"risk_notes"`
}

// SynapseClassification asks the model to name the relationship family and
// subtype between two scored phrases. If the model's family/subtype pair
// is not in the closed, family-partitioned list, the family is replaced
// with the deterministic inference from the component breakdown and the
// subtype is cleared.
func (a *Adapter) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	prompt := buildSynapseClassificationPrompt(req)

	var parsed rawSynapseClassification
	raw, err := a.generateJSON(ctx, "synapseClassification", prompt, func(r string) error {
		return json.Unmarshal([]byte(r), &parsed)
	})
	if err != nil {
		return adapters.SynapseClassificationResult{}, adapters.Provenance{}, err
	}

	family := types.SynapseFamily(strings.ToUpper(strings.TrimSpace(parsed.Family)))
	subtype := strings.ToLower(strings.TrimSpace(parsed.Subtype))
	if _, ok := types.SubtypesByFamily[family]; !ok || !types.ValidSubtype(family, subtype) {
		family = kernel.InferFamilyFromComponents(req.Components, req.IntentDistance)
		subtype = ""
	}

	return adapters.SynapseClassificationResult{
			Family:            family,
			Subtype:           subtype,
			Explanation:       parsed.Explanation,
			ActionableInsight: parsed.ActionableInsight,
			Contradiction:     parsed.Contradiction,
			RiskNotes:         parsed.RiskNotes,
			PromptVersion:     PromptVersion,
			RawResponse:       raw,
		}, adapters.Provenance{Source: "genai", ModelID: a.cfg.Model}, nil
}

func buildSynapseClassificationPrompt(req adapters.SynapseClassificationRequest) string {
	return fmt.Sprintf(`Two search queries have been compared by a fixed component scorer:
serp_overlap=%.2f concept_overlap=%.2f perspective_alignment=%.2f entity_overlap=%.2f intent_proximity=%.2f
shared_concepts=%v only_a_concepts=%v only_b_concepts=%v
perspective_a=%s perspective_b=%s perspective_inversion=%v intent_distance=%.2f

Classify their relationship. Return ONLY a JSON object with this exact shape:
{
  "family": "EXPANSION|TRANSITION|BOUNDARY|CONTEXTUAL",
  "subtype": "one of the subtypes belonging to the chosen family",
  "explanation": "1-2 sentences",
  "actionable_insight": "1 sentence",
  "contradiction": true|false,
  "risk_notes": "..."
}
Family subtypes: EXPANSION={attribute_expansion,facet_broadening,long_tail_drilldown}
TRANSITION={funnel_progression,research_to_decision,problem_to_solution}
BOUNDARY={perspective_inversion,competing_intent,scope_mismatch}
CONTEXTUAL={complementary_topic,shared_audience,seasonal_variant}`,
		deref(req.Components.SerpOverlap), deref(req.Components.ConceptOverlap), deref(req.Components.PerspectiveAlignment),
		deref(req.Components.EntityOverlap), deref(req.Components.IntentProximity),
		req.SharedConcepts, req.OnlyAConcepts, req.OnlyBConcepts,
		req.PerspectiveA, req.PerspectiveB, req.Inversion, req.IntentDistance)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
