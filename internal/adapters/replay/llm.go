package replay

import (
	"context"
	"fmt"

	"synapse/internal/adapters"
)

// LLM wraps an adapters.LLMAdapter with record/replay caching.
type LLM struct {
	store *Store
	inner adapters.LLMAdapter
}

// WrapLLM returns a caching wrapper around inner. In ModeReplay, inner may
// be nil: a cache miss then returns an error instead of calling out.
func WrapLLM(store *Store, inner adapters.LLMAdapter) LLM {
	return LLM{store: store, inner: inner}
}

func (l LLM) IntentExtraction(ctx context.Context, req adapters.IntentExtractionRequest) (adapters.IntentExtractionResult, adapters.Provenance, error) {
	var cached adapters.IntentExtractionResult
	if prov, ok, err := l.store.lookup(ctx, "llm", "intentExtraction", req, &cached); err != nil {
		return adapters.IntentExtractionResult{}, adapters.Provenance{}, err
	} else if ok {
		return cached, prov, nil
	}
	if l.store.mode == ModeReplay || l.inner == nil {
		return adapters.IntentExtractionResult{}, adapters.Provenance{}, fmt.Errorf("replay: no cached intentExtraction response for this request and no live adapter configured")
	}
	result, prov, err := l.inner.IntentExtraction(ctx, req)
	if err != nil {
		return result, prov, err
	}
	if err := l.store.record(ctx, "llm", "intentExtraction", req, result, prov); err != nil {
		return result, prov, err
	}
	return result, prov, nil
}

func (l LLM) SynapseClassification(ctx context.Context, req adapters.SynapseClassificationRequest) (adapters.SynapseClassificationResult, adapters.Provenance, error) {
	var cached adapters.SynapseClassificationResult
	if prov, ok, err := l.store.lookup(ctx, "llm", "synapseClassification", req, &cached); err != nil {
		return adapters.SynapseClassificationResult{}, adapters.Provenance{}, err
	} else if ok {
		return cached, prov, nil
	}
	if l.store.mode == ModeReplay || l.inner == nil {
		return adapters.SynapseClassificationResult{}, adapters.Provenance{}, fmt.Errorf("replay: no cached synapseClassification response for this request and no live adapter configured")
	}
	result, prov, err := l.inner.SynapseClassification(ctx, req)
	if err != nil {
		return result, prov, err
	}
	if err := l.store.record(ctx, "llm", "synapseClassification", req, result, prov); err != nil {
		return result, prov, err
	}
	return result, prov, nil
}
