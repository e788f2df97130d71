package model

// IssueCategory names the check that produced an issue. The fix priority
// order in the rescue step is defined over these values.
type IssueCategory string

const (
	IssueLinkPlacement  IssueCategory = "link_placement"
	IssueLSI            IssueCategory = "lsi"
	IssueAnchorRisk     IssueCategory = "anchor_risk"
	IssueCompliance     IssueCategory = "compliance"
	IssueTrustSources   IssueCategory = "trust_sources"
	IssueIntentMismatch IssueCategory = "intent_mismatch"
	IssueBridgeConflict IssueCategory = "bridge_conflict"
)

// Severity grades an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityInfo     Severity = "info"
)

// QCStatus is the overall verdict of a validation pass.
type QCStatus string

const (
	QCPass         QCStatus = "pass"
	QCWarning      QCStatus = "warning"
	QCFail         QCStatus = "fail"
	QCNeedsSignoff QCStatus = "needs_signoff"
)

// Issue is a single finding from a quality check.
type Issue struct {
	Category    IssueCategory `json:"category"`
	Severity    Severity      `json:"severity"`
	Message     string        `json:"message"`
	AutoFixable bool          `json:"auto_fixable"`
	Resolved    bool          `json:"resolved,omitempty"`
}

// QCReport is the full outcome of one validation pass.
type QCReport struct {
	Status QCStatus `json:"status"`
	Issues []Issue  `json:"issues,omitempty"`
}

// Recompute derives the overall status from the unresolved issues. Signoff
// routing is sticky: a needs_signoff report stays needs_signoff unless an
// unresolved critical issue demands fail.
func (r *QCReport) Recompute() QCStatus {
	hasCritical, hasNonCritical := false, false
	for _, is := range r.Issues {
		if is.Resolved {
			continue
		}
		switch is.Severity {
		case SeverityCritical:
			hasCritical = true
		case SeverityHigh, SeverityMedium:
			hasNonCritical = true
		}
	}
	switch {
	case hasCritical:
		r.Status = QCFail
	case r.Status == QCNeedsSignoff:
		// keep
	case hasNonCritical:
		r.Status = QCWarning
	default:
		r.Status = QCPass
	}
	return r.Status
}

// HasAutoFixable reports whether any unresolved issue can be auto-fixed.
func (r *QCReport) HasAutoFixable() bool {
	for _, is := range r.Issues {
		if is.AutoFixable && !is.Resolved {
			return true
		}
	}
	return false
}

// AutoFixLog records the single repair attempted in a run, if any.
type AutoFixLog struct {
	Category IssueCategory `json:"category"`
	Action   string        `json:"action"`
	Detail   string        `json:"detail,omitempty"`
}
