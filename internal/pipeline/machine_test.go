package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkforge/internal/anchor"
	"github.com/sells-group/linkforge/internal/assemble"
	"github.com/sells-group/linkforge/internal/intent"
	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/qc"
	"github.com/sells-group/linkforge/internal/query"
	"github.com/sells-group/linkforge/internal/serp"
	"github.com/sells-group/linkforge/internal/store"
	"github.com/sells-group/linkforge/internal/writer"
	"github.com/sells-group/linkforge/pkg/serper"
)

type mockProfiler struct {
	pages map[string]*model.PageProfile
}

func (m *mockProfiler) Profile(_ context.Context, pageURL string) (*model.PageProfile, error) {
	p, ok := m.pages[pageURL]
	if !ok {
		return nil, eris.Errorf("no profile for %s", pageURL)
	}
	return p, nil
}

type mockSerper struct {
	results []model.SerpResult
}

func (m *mockSerper) Fetch(_ context.Context, _ serper.Query) ([]model.SerpResult, error) {
	return m.results, nil
}

type failingWriter struct{}

func (failingWriter) Generate(context.Context, *model.JobSpecification) (*model.GeneratedArticle, error) {
	return nil, eris.New("model overloaded")
}

// mockStore records persistence calls; reads are unused by the machine.
type mockStore struct {
	runs      []*model.Run
	artifacts map[model.ArtifactKind][]byte
}

func newMockStore() *mockStore {
	return &mockStore{artifacts: make(map[model.ArtifactKind][]byte)}
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }

func (m *mockStore) SaveRun(_ context.Context, run *model.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (m *mockStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	return nil, nil
}

func (m *mockStore) SaveArtifact(_ context.Context, _ string, kind model.ArtifactKind, data []byte) error {
	m.artifacts[kind] = data
	return nil
}

func (m *mockStore) GetArtifact(context.Context, string, model.ArtifactKind) ([]byte, error) {
	return nil, nil
}

func (m *mockStore) GetSerpAnalysis(context.Context, string, string, string) (*model.QueryAnalysis, bool, error) {
	return nil, false, nil
}

func (m *mockStore) SetSerpAnalysis(context.Context, string, string, string, *model.QueryAnalysis, time.Duration) error {
	return nil
}

func (m *mockStore) DeleteExpiredSerp(context.Context) (int, error) { return 0, nil }

// memSerpCache is an in-memory analysis cache with the store-backed cache's
// read/write semantics.
type memSerpCache struct {
	entries map[string]*model.QueryAnalysis
}

func newMemSerpCache() *memSerpCache {
	return &memSerpCache{entries: make(map[string]*model.QueryAnalysis)}
}

func (c *memSerpCache) GetSerpAnalysis(_ context.Context, q, language, location string) (*model.QueryAnalysis, bool, error) {
	a, ok := c.entries[q+"|"+language+"|"+location]
	if !ok {
		return nil, false, nil
	}
	clone := *a
	return &clone, true, nil
}

func (c *memSerpCache) SetSerpAnalysis(_ context.Context, q, language, location string, analysis *model.QueryAnalysis, _ time.Duration) error {
	clone := *analysis
	c.entries[q+"|"+language+"|"+location] = &clone
	return nil
}

func bikeShopPages() map[string]*model.PageProfile {
	return map[string]*model.PageProfile{
		"https://shop.example.se/elcyklar": {
			URL:               "https://shop.example.se/elcyklar",
			HTTPStatus:        200,
			Title:             "Elcykelbutiken",
			Entities:          []string{"Cykelhuset"},
			Topics:            []string{"elcyklar"},
			Language:          "sv",
			ContentType:       "product",
			CommercialSignals: []string{"pris från 14995 kr"},
		},
		"https://cykelblogg.example.se": {
			URL:           "https://cykelblogg.example.se",
			HTTPStatus:    200,
			Title:         "Cykelbloggen",
			ToneClass:     "journalistic",
			Commerciality: "medium",
			Topics:        []string{"cykling", "friluftsliv"},
			Language:      "sv",
		},
	}
}

func bikeSerpResults() []model.SerpResult {
	var out []model.SerpResult
	for i := 1; i <= 8; i++ {
		out = append(out, model.SerpResult{
			Rank:    i,
			Title:   "Eldrivna Cyklar 2025 | Topplista",
			URL:     fmt.Sprintf("https://site%d.example.se/test", i),
			Snippet: "Jämför modellerna och se vilka som är bäst i test.",
		})
	}
	return out
}

func newTestMachine(w writer.Writer, pages map[string]*model.PageProfile, results []model.SerpResult, st store.Store) *Machine {
	lex := lexicon.MustDefault()
	researcher := serp.NewResearcher(&mockSerper{results: results}, nil, lex, serp.Config{})
	assembler := assemble.New(
		assemble.DefaultConfig(),
		&mockProfiler{pages: pages},
		anchor.NewClassifier(lex),
		query.NewSelector(lex),
		researcher,
		intent.NewEngine(lex),
		lex,
	)
	controller := qc.NewController(lex, qc.DefaultConfig())
	return New(assembler, w, controller, st, 16)
}

func bikeInput() model.JobInput {
	return model.JobInput{
		PublisherDomain: "cykelblogg.example.se",
		TargetURL:       "https://shop.example.se/elcyklar",
		AnchorText:      "läs mer om elcyklar",
		Language:        "sv",
	}
}

func TestExecute_DeliversCleanRun(t *testing.T) {
	t.Parallel()

	st := newMockStore()
	m := newTestMachine(&writer.StubWriter{}, bikeShopPages(), bikeSerpResults(), st)

	result := m.Execute(context.Background(), bikeInput())

	assert.True(t, result.Success)
	assert.Equal(t, model.StateDeliver, result.FinalState)
	require.NotNil(t, result.QCReport)
	assert.Equal(t, model.QCPass, result.QCReport.Status)
	assert.Nil(t, result.AutoFix)
	assert.Empty(t, result.ErrorMessage)

	require.NotNil(t, result.Job)
	assert.Equal(t, model.BridgePivot, result.Job.Intent.Bridge)
	assert.Contains(t, result.ArticleText, "[läs mer om elcyklar](https://shop.example.se/elcyklar)")

	var transitions []model.PipelineState
	for _, e := range result.ExecutionLog {
		if e.FromState != e.ToState {
			transitions = append(transitions, e.ToState)
		}
	}
	assert.Equal(t, []model.PipelineState{
		model.StatePreflight, model.StateWrite, model.StateQC, model.StateDeliver,
	}, transitions)

	require.Len(t, st.runs, 1)
	assert.Equal(t, result.JobID, st.runs[0].JobID)
	assert.Equal(t, model.StateDeliver, st.runs[0].FinalState)
	assert.Len(t, st.artifacts, 5)
	assert.Contains(t, st.artifacts, model.ArtifactArticle)
	assert.Contains(t, st.artifacts, model.ArtifactExecutionLog)
}

func TestExecute_RejectsIdenticalReplay(t *testing.T) {
	t.Parallel()

	m := newTestMachine(&writer.StubWriter{}, bikeShopPages(), bikeSerpResults(), nil)

	first := m.Execute(context.Background(), bikeInput())
	require.True(t, first.Success)

	second := m.Execute(context.Background(), bikeInput())
	assert.False(t, second.Success)
	assert.Equal(t, model.StateAbort, second.FinalState)
	assert.Contains(t, second.ErrorMessage, "already processed")
}

// An identical resubmission is rejected even when its SERP analyses come out
// of a warm cache instead of the provider: the replay hash must not see the
// cache provenance flags.
func TestExecute_RejectsReplayWithWarmSerpCache(t *testing.T) {
	t.Parallel()

	lex := lexicon.MustDefault()
	researcher := serp.NewResearcher(&mockSerper{results: bikeSerpResults()}, newMemSerpCache(), lex, serp.Config{})
	assembler := assemble.New(
		assemble.DefaultConfig(),
		&mockProfiler{pages: bikeShopPages()},
		anchor.NewClassifier(lex),
		query.NewSelector(lex),
		researcher,
		intent.NewEngine(lex),
		lex,
	)
	m := New(assembler, &writer.StubWriter{}, qc.NewController(lex, qc.DefaultConfig()), nil, 16)

	first := m.Execute(context.Background(), bikeInput())
	require.True(t, first.Success)
	require.NotNil(t, first.Job)
	assert.False(t, first.Job.Serp.Main.FromCache)

	second := m.Execute(context.Background(), bikeInput())
	assert.False(t, second.Success)
	assert.Equal(t, model.StateAbort, second.FinalState)
	assert.Contains(t, second.ErrorMessage, "already processed")

	// The second assembly really was served from the cache.
	require.NotNil(t, second.Job)
	assert.True(t, second.Job.Serp.Main.FromCache)
}

func TestSpecHash_IgnoresCacheProvenance(t *testing.T) {
	t.Parallel()

	fresh := &model.JobSpecification{
		JobID: "job-1",
		Serp: model.SerpResearch{
			MainQuery: "elcyklar test",
			Main:      model.QueryAnalysis{Query: "elcyklar test"},
			Clusters:  []model.QueryAnalysis{{Query: "elcyklar guide"}},
		},
	}
	replayed := &model.JobSpecification{
		JobID: "job-2",
		Serp: model.SerpResearch{
			MainQuery: "elcyklar test",
			Main:      model.QueryAnalysis{Query: "elcyklar test", FromCache: true},
			Clusters:  []model.QueryAnalysis{{Query: "elcyklar guide", FromCache: true}},
		},
	}

	assert.Equal(t, specHash(fresh), specHash(replayed))

	// Hashing never mutates the specification it reads.
	assert.True(t, replayed.Serp.Main.FromCache)
	assert.True(t, replayed.Serp.Clusters[0].FromCache)
}

func TestExecute_AbortsOnAssemblyFailure(t *testing.T) {
	t.Parallel()

	pages := bikeShopPages()
	pages["https://shop.example.se/elcyklar"].HTTPStatus = 404
	m := newTestMachine(&writer.StubWriter{}, pages, bikeSerpResults(), nil)

	result := m.Execute(context.Background(), bikeInput())
	assert.False(t, result.Success)
	assert.Equal(t, model.StateAbort, result.FinalState)
	assert.Contains(t, result.ErrorMessage, "assembly failed")
	assert.Contains(t, result.ErrorMessage, "404")
}

func TestExecute_AbortsOnWriterFailure(t *testing.T) {
	t.Parallel()

	st := newMockStore()
	m := newTestMachine(failingWriter{}, bikeShopPages(), bikeSerpResults(), st)

	result := m.Execute(context.Background(), bikeInput())
	assert.False(t, result.Success)
	assert.Equal(t, model.StateAbort, result.FinalState)
	assert.Contains(t, result.ErrorMessage, "generation failed")

	// The run record is still persisted, without article artifacts.
	require.Len(t, st.runs, 1)
	assert.Equal(t, model.StateAbort, st.runs[0].FinalState)
}

// A risky exact-match anchor and a missing anchor link occur together. The
// single repair goes to link placement, so the anchor-risk critical survives
// and the run aborts.
func TestExecute_SingleRepairCannotSaveRun(t *testing.T) {
	t.Parallel()

	m := newTestMachine(&writer.StubWriter{OmitAnchorLink: true}, bikeShopPages(), bikeSerpResults(), nil)

	in := bikeInput()
	in.AnchorText = "köp billig elcykel"
	in.AnchorTypeHint = model.AnchorExact

	result := m.Execute(context.Background(), in)

	assert.False(t, result.Success)
	assert.Equal(t, model.StateAbort, result.FinalState)
	assert.Contains(t, result.ErrorMessage, "unresolved critical issues remain after repair")

	require.NotNil(t, result.AutoFix)
	assert.Equal(t, model.IssueLinkPlacement, result.AutoFix.Category)
	assert.Contains(t, result.ArticleText, "Mer information finns hos [köp billig elcykel](https://shop.example.se/elcyklar).")

	require.NotNil(t, result.QCReport)
	risk := findIssue(result.QCReport, model.IssueAnchorRisk)
	require.NotNil(t, risk)
	assert.Equal(t, model.SeverityCritical, risk.Severity)
	assert.False(t, risk.Resolved)
}

func casinoPages() map[string]*model.PageProfile {
	return map[string]*model.PageProfile{
		"https://casino.example.se/spel": {
			URL:              "https://casino.example.se/spel",
			HTTPStatus:       200,
			Title:            "Casinoguider",
			Entities:         []string{"Spelmarknaden"},
			Topics:           []string{"onlinespel"},
			Language:         "sv",
			ContentType:      "guide",
			CandidateQueries: []string{"onlinespel guide"},
		},
		"https://nyhetssajt.example.se": {
			URL:           "https://nyhetssajt.example.se",
			HTTPStatus:    200,
			Title:         "Nyhetssajten",
			ToneClass:     "journalistic",
			Commerciality: "low",
			Topics:        []string{"nyheter", "sport"},
			Language:      "sv",
		},
	}
}

func casinoSerpResults() []model.SerpResult {
	var out []model.SerpResult
	for i := 1; i <= 8; i++ {
		out = append(out, model.SerpResult{
			Rank:    i,
			Title:   "Onlinespel Guide | Säkra spelsidor",
			URL:     fmt.Sprintf("https://site%d.example.se/spel", i),
			Snippet: "Lär dig hur onlinespel fungerar.",
		})
	}
	return out
}

// The writer drops the mandatory gambling disclaimer. The compliance issue is
// the only fixable one, the repair appends the disclaimer verbatim, and the
// run recovers to a delivery.
func TestExecute_RescuesMissingDisclaimer(t *testing.T) {
	t.Parallel()

	st := newMockStore()
	m := newTestMachine(&writer.StubWriter{OmitDisclaimer: true}, casinoPages(), casinoSerpResults(), st)

	result := m.Execute(context.Background(), model.JobInput{
		PublisherDomain: "nyhetssajt.example.se",
		TargetURL:       "https://casino.example.se/spel",
		AnchorText:      "läs mer om spel",
		Language:        "sv",
	})

	assert.True(t, result.Success)
	assert.Equal(t, model.StateDeliver, result.FinalState)

	require.NotNil(t, result.Job)
	assert.Equal(t, model.BridgeStrong, result.Job.Intent.Bridge)
	assert.True(t, result.Job.Constraints.RequireSignoff)

	require.NotNil(t, result.AutoFix)
	assert.Equal(t, model.IssueCompliance, result.AutoFix.Category)

	disclaimer := "Spel om pengar innebär risker. Spela ansvarsfullt. 18+. Stödlinjen: 020-81 91 00."
	assert.Equal(t, disclaimer, result.Job.Constraints.RequiredDisclaimer)
	assert.Contains(t, result.ArticleText, disclaimer)

	var sawRescue bool
	for _, e := range result.ExecutionLog {
		if e.ToState == model.StateRescue {
			sawRescue = true
		}
	}
	assert.True(t, sawRescue)
	require.Len(t, st.runs, 1)
}

func findIssue(report *model.QCReport, cat model.IssueCategory) *model.Issue {
	for i := range report.Issues {
		if report.Issues[i].Category == cat {
			return &report.Issues[i]
		}
	}
	return nil
}
