package qc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
)

func TestFixOnce_AppendsDisclaimer(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	job.Constraints.RequiredDisclaimer = "Spel om pengar innebär risker. Spela ansvarsfullt. 18+. Stödlinjen: 020-81 91 00."

	report := ctrl.Validate(job, chairsExtensions(), chairsArticle)
	require.Equal(t, model.QCFail, report.Status)
	require.True(t, report.HasAutoFixable())

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, chairsArticle)
	require.NotNil(t, log)
	assert.Equal(t, model.IssueCompliance, log.Category)
	assert.Equal(t, "appended disclaimer", log.Action)
	assert.True(t, strings.HasSuffix(fixed, "\n\n"+job.Constraints.RequiredDisclaimer+"\n"))

	issue := findIssue(report, model.IssueCompliance)
	require.NotNil(t, issue)
	assert.True(t, issue.Resolved)
	assert.Equal(t, model.QCPass, report.Recompute())
}

func TestFixOnce_SecondCallIsNoop(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	job.Constraints.RequiredDisclaimer = "Gambling involves risk. Play responsibly. 18+."
	report := ctrl.Validate(job, chairsExtensions(), chairsArticle)

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, chairsArticle)
	require.NotNil(t, log)

	again, log2 := fixer.FixOnce(job, &report, fixed)
	assert.Nil(t, log2)
	assert.Equal(t, fixed, again)
}

func TestFixOnce_PlacementBeforeCompliance(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	job.Constraints.RequiredDisclaimer = "Gambling involves risk. Play responsibly. 18+."

	// No anchor link at all: placement and compliance are both fixable, and
	// placement wins the priority order.
	article := `Office workers spend long hours seated. Guidance from [OSHA](https://www.osha.gov/ergonomics), [NCBI](https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123/), and [Reuters](https://www.reuters.com/business/office/) covers the basics.
`
	report := ctrl.Validate(job, chairsExtensions(), article)
	require.NotNil(t, findIssue(report, model.IssueLinkPlacement))
	require.NotNil(t, findIssue(report, model.IssueCompliance))

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, article)
	require.NotNil(t, log)
	assert.Equal(t, model.IssueLinkPlacement, log.Category)
	assert.Contains(t, fixed, "[ergonomic office chairs](https://acme.com/chairs)")

	// The compliance critical survives, so the run still fails.
	assert.Equal(t, model.QCFail, report.Recompute())
}

func TestFixOnce_InsertsMissingLink(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	article := "Office workers spend long hours seated.\n"

	report := model.QCReport{Issues: []model.Issue{{
		Category:    model.IssueLinkPlacement,
		Severity:    model.SeverityHigh,
		AutoFixable: true,
	}}}

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, article)
	require.NotNil(t, log)
	assert.Contains(t, fixed, "More details are available at [ergonomic office chairs](https://acme.com/chairs).")
}

func TestFixOnce_MovesLinkOutOfHeading(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	article := `# Why [ergonomic office chairs](https://acme.com/chairs) Matter

Office workers spend long hours seated.
`
	report := model.QCReport{Issues: []model.Issue{{
		Category:    model.IssueLinkPlacement,
		Severity:    model.SeverityMedium,
		AutoFixable: true,
	}}}

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, article)
	require.NotNil(t, log)
	assert.Contains(t, fixed, "# Why ergonomic office chairs Matter")

	lines := strings.Split(fixed, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			assert.NotContains(t, line, "](")
		}
	}
	assert.Contains(t, fixed, "More details are available at [ergonomic office chairs](https://acme.com/chairs).")
}

func TestFixOnce_DowngradesRiskyAnchor(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	job.Anchor = model.AnchorProfile{Text: "buy", Type: model.AnchorExact, IntentHint: model.IntentTransactional}
	article := "Start with [buy](https://acme.com/chairs) today.\n"

	report := model.QCReport{Issues: []model.Issue{{
		Category:    model.IssueAnchorRisk,
		Severity:    model.SeverityCritical,
		AutoFixable: true,
	}}}

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, article)
	require.NotNil(t, log)
	assert.Equal(t, "downgraded anchor type", log.Action)
	assert.Contains(t, fixed, "[Acme](https://acme.com/chairs)")
	assert.NotContains(t, fixed, "[buy]")
}

func TestFixOnce_AddsSparseVocabulary(t *testing.T) {
	t.Parallel()
	ctrl := NewController(lexicon.MustDefault(), DefaultConfig())

	job := chairsJob()
	article := "The buyer overview of [ergonomic office chairs](https://acme.com/chairs) walks through every adjustment.\n"

	report := ctrl.Validate(job, chairsExtensions(), article)
	lsi := findIssue(report, model.IssueLSI)
	require.NotNil(t, lsi)

	fixer := NewFixer(ctrl)
	fixed, log := fixer.FixOnce(job, &report, article)
	require.NotNil(t, log)
	assert.Equal(t, model.IssueLSI, log.Category)
	assert.Contains(t, fixed, "Closely related themes here include lumbar support, adjustable height, mesh back, desk posture, seat depth, armrests.")
}
