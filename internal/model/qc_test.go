package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecompute(t *testing.T) {
	t.Parallel()

	t.Run("no issues is pass", func(t *testing.T) {
		t.Parallel()
		var r QCReport
		assert.Equal(t, QCPass, r.Recompute())
	})

	t.Run("critical is fail", func(t *testing.T) {
		t.Parallel()
		r := QCReport{Issues: []Issue{
			{Category: IssueAnchorRisk, Severity: SeverityCritical},
			{Category: IssueLSI, Severity: SeverityMedium},
		}}
		assert.Equal(t, QCFail, r.Recompute())
	})

	t.Run("resolved critical no longer fails", func(t *testing.T) {
		t.Parallel()
		r := QCReport{Issues: []Issue{
			{Category: IssueCompliance, Severity: SeverityCritical, Resolved: true},
			{Category: IssueLSI, Severity: SeverityMedium},
		}}
		assert.Equal(t, QCWarning, r.Recompute())
	})

	t.Run("needs_signoff is sticky without criticals", func(t *testing.T) {
		t.Parallel()
		r := QCReport{Status: QCNeedsSignoff, Issues: []Issue{
			{Category: IssueBridgeConflict, Severity: SeverityMedium},
		}}
		assert.Equal(t, QCNeedsSignoff, r.Recompute())
	})

	t.Run("critical overrides needs_signoff", func(t *testing.T) {
		t.Parallel()
		r := QCReport{Status: QCNeedsSignoff, Issues: []Issue{
			{Category: IssueTrustSources, Severity: SeverityCritical},
		}}
		assert.Equal(t, QCFail, r.Recompute())
	})
}

func TestHasAutoFixable(t *testing.T) {
	t.Parallel()

	r := QCReport{Issues: []Issue{
		{Category: IssueTrustSources, Severity: SeverityCritical},
		{Category: IssueLSI, Severity: SeverityMedium, AutoFixable: true},
	}}
	assert.True(t, r.HasAutoFixable())

	r.Issues[1].Resolved = true
	assert.False(t, r.HasAutoFixable())
}

func TestPipelineStateTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StateDeliver.Terminal())
	assert.True(t, StateAbort.Terminal())
	assert.False(t, StateQC.Terminal())
	assert.False(t, StateRescue.Terminal())
}
