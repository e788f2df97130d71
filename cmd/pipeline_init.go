package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/linkforge/internal/anchor"
	"github.com/sells-group/linkforge/internal/assemble"
	"github.com/sells-group/linkforge/internal/intent"
	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/pipeline"
	"github.com/sells-group/linkforge/internal/qc"
	"github.com/sells-group/linkforge/internal/query"
	"github.com/sells-group/linkforge/internal/serp"
	"github.com/sells-group/linkforge/internal/store"
	"github.com/sells-group/linkforge/internal/writer"
	anthropicpkg "github.com/sells-group/linkforge/pkg/anthropic"
	"github.com/sells-group/linkforge/pkg/profiler"
	"github.com/sells-group/linkforge/pkg/serper"
)

// initStore opens and migrates the SQLite store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// buildMachine wires the full pipeline from configuration. With dryRun set
// the Claude writer is replaced by the deterministic stub and no generation
// cost is incurred.
func buildMachine(st store.Store, dryRun bool) (*pipeline.Machine, error) {
	lex, err := lexicon.Default()
	if err != nil {
		return nil, eris.Wrap(err, "load lexicon")
	}

	profilerClient := profiler.NewClient(cfg.Profiler.Key, profiler.WithBaseURL(cfg.Profiler.BaseURL))
	serperClient := serper.NewClient(cfg.Serper.Key,
		serper.WithBaseURL(cfg.Serper.BaseURL),
		serper.WithRateLimit(cfg.Serper.RatePerSec),
	)

	researcher := serp.NewResearcher(serperClient, st, lex, serp.Config{
		TopN:     cfg.Serp.TopN,
		CacheTTL: cfg.Serp.CacheTTL(),
		Location: cfg.Serp.Location,
	})

	assembler := assemble.New(
		assemble.Config{
			DefaultMinWordCount: cfg.Pipeline.DefaultMinWordCount,
			SignoffVerticals:    cfg.Pipeline.SignoffVerticals,
		},
		profilerClient,
		anchor.NewClassifier(lex),
		query.NewSelector(lex),
		researcher,
		intent.NewEngine(lex),
		lex,
	)

	controller := qc.NewController(lex, qc.Config{
		LSIMin:          cfg.QC.LSIMin,
		LSIMax:          cfg.QC.LSIMax,
		LSIWindow:       cfg.QC.LSIWindow,
		MinTrustSources: cfg.QC.MinTrustSources,
	})

	var w writer.Writer
	if dryRun {
		w = &writer.StubWriter{}
	} else {
		w = writer.NewLLMWriter(anthropicpkg.NewClient(cfg.Writer.Key), writer.Config{
			Model:       cfg.Writer.Model,
			MaxTokens:   int64(cfg.Writer.MaxTokens),
			Temperature: cfg.Writer.Temperature,
		})
	}

	return pipeline.New(assembler, w, controller, st, cfg.Pipeline.GuardCapacity), nil
}
