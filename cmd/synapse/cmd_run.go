package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synapse/internal/adapters"
	"synapse/internal/adapters/llm"
	"synapse/internal/adapters/offline"
	"synapse/internal/adapters/replay"
	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/orchestrator"
	"synapse/internal/taxonomy"
	"synapse/internal/types"
)

var (
	runLanguage string
	runMarket   string
	runOutput   string
	runPretty   bool
)

var runCmd = &cobra.Command{
	Use:   "run [seed phrase]",
	Short: "Run the pipeline against a seed search phrase",
	Long: `Runs the full pipeline against a seed phrase: candidate generation,
intent extraction, synapse classification, selection, clustering, and
artifact emission.

Example:
  synapse run "mäklare stockholm" --market se --language sv`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	seed := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Logging.DebugMode {
		ws, _ := os.Getwd()
		if err := logging.SetDebugMode(ws, true); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to enable file logging: %v\n", err)
		}
	}
	if timeout > 0 {
		cfg.RunDeadline = timeout.String()
	}

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	deps, cleanup, err := buildDependencies(baseCtx, cfg)
	if err != nil {
		return fmt.Errorf("building adapters: %w", err)
	}
	defer cleanup()

	logger.Info("starting run", zap.String("seed", seed), zap.String("market", runMarket))

	orch := orchestrator.New(deps, cfg)
	result, err := orch.Run(baseCtx, seed, runLanguage, runMarket)
	if err != nil {
		return fmt.Errorf("run failed at stage %s: %w", result.Stage, err)
	}

	logger.Info("run finished", zap.String("stage", string(result.Stage)),
		zap.Int("nodes", len(result.Graph.Nodes)), zap.Int("selected", len(result.RelatedQueries.Selected)))

	return writeArtifacts(result)
}

// buildDependencies wires the orchestrator's adapter dependencies: keyword
// data and SERP metadata are served by the offline reference adapters
// (reaching out to a live data provider is out of scope), the LLM adapter is
// the GenAI-backed one when configured with an API key, otherwise the
// deterministic offline stand-in. When replay is enabled, LLM calls are
// cached through a sqlite-backed store.
func buildDependencies(ctx context.Context, cfg *config.Config) (orchestrator.Dependencies, func(), error) {
	cleanup := func() {}

	var llmAdapter adapters.LLMAdapter
	switch cfg.LLM.Provider {
	case "genai":
		adapter, err := llm.New(ctx, llm.Config{
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			Timeout:  cfg.LLMTimeoutDuration(),
			RetryMax: cfg.IntentExtractionRetryMax,
		})
		if err != nil {
			return orchestrator.Dependencies{}, cleanup, err
		}
		llmAdapter = adapter
	default:
		llmAdapter = offline.NewLLM()
	}

	if cfg.Replay.Enabled {
		store, err := replay.Open(cfg.Replay.DBPath, parseReplayMode(cfg.Replay.Mode))
		if err != nil {
			return orchestrator.Dependencies{}, cleanup, fmt.Errorf("opening replay store: %w", err)
		}
		var inner adapters.LLMAdapter
		if cfg.Replay.Mode != "replay" {
			inner = llmAdapter
		}
		llmAdapter = replay.WrapLLM(store, inner)
		cleanup = func() { _ = store.Close() }
	}

	return orchestrator.Dependencies{
		KeywordData:   offline.NewKeywordData(),
		WebScrape:     offline.NewWebScrape(),
		SerpMetadata:  offline.NewSerpMetadata(),
		LLM:           llmAdapter,
		FacetFallback: defaultFacetFallback,
	}, cleanup, nil
}

// defaultFacetFallback builds candidates by pairing the seed with every
// known taxonomy synonym term for the seed's market, used when every
// keyword-data operation fails. Every candidate it proposes is tagged
// edge_seeding, the same low-confidence source the pipeline already caps
// confidence for.
func defaultFacetFallback(ctx context.Context, seed types.Phrase, max int) ([]types.Candidate, error) {
	terms := taxonomy.FacetTerms(seed.Market)
	out := make([]types.Candidate, 0, len(terms))
	for _, term := range terms {
		if len(out) >= max {
			break
		}
		text := seed.Text + " " + term
		c := types.Candidate{Phrase: types.NewPhrase(text, seed.Language, seed.Market)}
		c.AddSource(types.SourceEdgeSeeding)
		out = append(out, c)
	}
	return out, nil
}

func writeArtifacts(result orchestrator.Result) error {
	graphJSON, err := marshal(result.Graph)
	if err != nil {
		return fmt.Errorf("marshalling graph artifact: %w", err)
	}
	relatedJSON, err := marshal(result.RelatedQueries)
	if err != nil {
		return fmt.Errorf("marshalling related-queries artifact: %w", err)
	}

	if runOutput == "" {
		fmt.Println(string(graphJSON))
		fmt.Println(string(relatedJSON))
		return nil
	}

	if err := os.MkdirAll(runOutput, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runOutput, "graph.json"), graphJSON, 0644); err != nil {
		return fmt.Errorf("writing graph artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runOutput, "related_queries.json"), relatedJSON, 0644); err != nil {
		return fmt.Errorf("writing related-queries artifact: %w", err)
	}
	logger.Info("artifacts written", zap.String("dir", runOutput))
	return nil
}

func parseReplayMode(mode string) replay.Mode {
	if mode == "record" {
		return replay.ModeRecord
	}
	return replay.ModeReplay
}

func marshal(v interface{}) ([]byte, error) {
	if runPretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
