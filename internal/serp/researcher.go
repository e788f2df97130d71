// Package serp turns selected queries into analyzed result sets: dominant
// and secondary intents, page archetypes, required subtopics, and a data
// confidence grade. Results are cached by (query, language, location).
package serp

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/query"
	"github.com/sells-group/linkforge/pkg/serper"
)

// Cache stores whole query analyses. Writes are whole-entry overwrites, so
// no locking beyond the backing store's atomic replace is needed.
type Cache interface {
	GetSerpAnalysis(ctx context.Context, q, language, location string) (*model.QueryAnalysis, bool, error)
	SetSerpAnalysis(ctx context.Context, q, language, location string, analysis *model.QueryAnalysis, ttl time.Duration) error
}

// Config tunes the researcher.
type Config struct {
	TopN     int
	CacheTTL time.Duration
	Location string
}

// Researcher fetches and analyzes SERP data per query.
type Researcher struct {
	provider serper.Client
	cache    Cache
	lex      *lexicon.Lexicon
	cfg      Config
}

// NewResearcher creates a Researcher. cache may be nil to disable caching.
func NewResearcher(provider serper.Client, cache Cache, lex *lexicon.Lexicon, cfg Config) *Researcher {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Researcher{provider: provider, cache: cache, lex: lex, cfg: cfg}
}

// Research analyzes the main query and every cluster query of a selection.
// Cache staleness never affects correctness, only freshness.
func (r *Researcher) Research(ctx context.Context, sel query.Selection) (model.SerpResearch, error) {
	research := model.SerpResearch{
		MainQuery:      sel.MainQuery,
		ClusterQueries: sel.ClusterQueries,
		Language:       sel.Language,
		Location:       r.cfg.Location,
	}

	main, err := r.analyzeQuery(ctx, sel.MainQuery, sel.Language)
	if err != nil {
		return research, eris.Wrapf(err, "serp: research main query %q", sel.MainQuery)
	}
	research.Main = *main

	for _, cq := range sel.ClusterQueries {
		analysis, err := r.analyzeQuery(ctx, cq, sel.Language)
		if err != nil {
			// Cluster sets only contribute secondary signal; a failed fetch
			// degrades confidence instead of failing the run.
			zap.L().Warn("serp: cluster query failed",
				zap.String("query", cq),
				zap.Error(err),
			)
			continue
		}
		research.Clusters = append(research.Clusters, *analysis)
	}

	research.Confidence = r.overallConfidence(research)
	return research, nil
}

func (r *Researcher) analyzeQuery(ctx context.Context, q, lang string) (*model.QueryAnalysis, error) {
	if r.cache != nil {
		cached, ok, err := r.cache.GetSerpAnalysis(ctx, q, lang, r.cfg.Location)
		if err != nil {
			zap.L().Warn("serp: cache read failed", zap.String("query", q), zap.Error(err))
		} else if ok {
			cached.FromCache = true
			return cached, nil
		}
	}

	results, err := r.provider.Fetch(ctx, serper.Query{
		Text:     q,
		Language: lang,
		Location: r.cfg.Location,
		TopN:     r.cfg.TopN,
	})
	if err != nil {
		return nil, err
	}

	analysis := r.Analyze(q, lang, results)

	if r.cache != nil {
		if err := r.cache.SetSerpAnalysis(ctx, q, lang, r.cfg.Location, analysis, r.cfg.CacheTTL); err != nil {
			zap.L().Warn("serp: cache write failed", zap.String("query", q), zap.Error(err))
		}
	}
	return analysis, nil
}

// Analyze derives the per-query signals from a ranked result list. Pure and
// deterministic: identical results always yield an identical analysis.
func (r *Researcher) Analyze(q, lang string, results []model.SerpResult) *model.QueryAnalysis {
	analysis := &model.QueryAnalysis{
		Query:      q,
		Results:    results,
		Confidence: countConfidence(len(results)),
	}

	dominant, secondary := r.scoreIntents(lang, results)
	analysis.DominantIntent = dominant
	analysis.SecondaryIntents = secondary
	analysis.PageArchetypes = r.matchArchetypes(results)
	analysis.RequiredSubtopics = requiredSubtopics(results)
	return analysis
}

// scoreIntents scores keyword signals over title/URL/snippet, weighted by
// 1/rank. Secondary intents are any scoring at least 30% of the dominant.
func (r *Researcher) scoreIntents(lang string, results []model.SerpResult) (model.Intent, []model.Intent) {
	pack := r.lex.Pack(lang)
	scores := make(map[model.Intent]float64)

	for _, res := range results {
		weight := 1.0 / float64(max(res.Rank, 1))
		haystack := strings.ToLower(res.Title + " " + res.URL + " " + res.Snippet)
		for _, intent := range model.AllIntents() {
			for _, kw := range pack.Intents[string(intent)] {
				if strings.Contains(haystack, kw) {
					scores[intent] += weight
				}
			}
		}
	}

	dominant := model.IntentInfoPrimary
	best := 0.0
	for _, intent := range model.AllIntents() {
		if s := scores[intent]; s > best {
			dominant, best = intent, s
		}
	}
	if best == 0 {
		return model.IntentInfoPrimary, nil
	}

	var secondary []model.Intent
	for _, intent := range model.AllIntents() {
		if intent == dominant {
			continue
		}
		if scores[intent] >= 0.3*best {
			secondary = append(secondary, intent)
		}
	}
	return dominant, secondary
}

// matchArchetypes returns the page archetypes present in at least two of the
// sampled results, in lexicon-stable order.
func (r *Researcher) matchArchetypes(results []model.SerpResult) []string {
	counts := make(map[string]int)
	for _, res := range results {
		haystack := strings.ToLower(res.Title + " " + res.URL + " " + res.Snippet)
		for name, patterns := range r.lex.Archetypes {
			for _, p := range patterns {
				if strings.Contains(haystack, p) {
					counts[name]++
					break
				}
			}
		}
	}

	var out []string
	for name, n := range counts {
		if n >= 2 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// requiredSubtopics extracts title phrases occurring in at least 60% of the
// sampled results, or in at least 2 of the top 5.
func requiredSubtopics(results []model.SerpResult) []string {
	type stat struct {
		total int
		top5  int
		first int // insertion order
		label string
	}
	stats := make(map[string]*stat)
	order := 0

	for i, res := range results {
		seen := make(map[string]struct{})
		for _, phrase := range titlePhrases(res.Title) {
			key := strings.ToLower(phrase)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			s, ok := stats[key]
			if !ok {
				s = &stat{first: order, label: phrase}
				stats[key] = s
				order++
			}
			s.total++
			if i < 5 {
				s.top5++
			}
		}
	}

	threshold := int(0.6*float64(len(results)) + 0.999)
	var kept []*stat
	for _, s := range stats {
		if (threshold > 0 && s.total >= threshold) || s.top5 >= 2 {
			kept = append(kept, s)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].first < kept[j].first })

	out := make([]string, 0, len(kept))
	for _, s := range kept {
		out = append(out, s.label)
	}
	return out
}

// titlePhrases splits a result title into candidate subtopic phrases.
func titlePhrases(title string) []string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return r == '|' || r == '-' || r == '–' || r == ':' || r == ',' || r == '(' || r == ')'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if len(f) >= 4 && len(f) <= 60 {
			out = append(out, f)
		}
	}
	return out
}

func countConfidence(n int) model.DataConfidence {
	switch {
	case n >= 8:
		return model.ConfidenceHigh
	case n >= 5:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// overallConfidence combines result-count sufficiency with cross-query
// intent consistency: inconsistent cluster intents downgrade one level.
func (r *Researcher) overallConfidence(research model.SerpResearch) model.DataConfidence {
	base := research.Main.Confidence
	if len(research.Clusters) == 0 {
		return base
	}

	mainCat := research.Main.DominantIntent.Category()
	agree := 0
	for _, c := range research.Clusters {
		if c.DominantIntent.Category() == mainCat {
			agree++
		}
	}
	if agree*2 >= len(research.Clusters) {
		return base
	}

	switch base {
	case model.ConfidenceHigh:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
