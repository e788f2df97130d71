package model

import "time"

// PipelineState is one of the fixed set of pipeline states.
type PipelineState string

const (
	StateReceive   PipelineState = "RECEIVE"
	StatePreflight PipelineState = "PREFLIGHT"
	StateWrite     PipelineState = "WRITE"
	StateQC        PipelineState = "QC"
	StateRescue    PipelineState = "RESCUE"
	StateDeliver   PipelineState = "DELIVER"
	StateAbort     PipelineState = "ABORT"
)

// Terminal reports whether the state ends a run.
func (s PipelineState) Terminal() bool {
	return s == StateDeliver || s == StateAbort
}

// LogEntry is one line of the append-only execution audit trail.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	FromState PipelineState  `json:"from_state"`
	ToState   PipelineState  `json:"to_state"`
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// PipelineResult is the terminal bundle every caller receives, on both
// success and failure paths.
type PipelineResult struct {
	Success      bool              `json:"success"`
	FinalState   PipelineState     `json:"final_state"`
	JobID        string            `json:"job_id"`
	Job          *JobSpecification `json:"job_specification,omitempty"`
	ArticleText  string            `json:"article_text,omitempty"`
	Extensions   *Extensions       `json:"extensions,omitempty"`
	QCReport     *QCReport         `json:"qc_report,omitempty"`
	AutoFix      *AutoFixLog       `json:"auto_fix,omitempty"`
	ExecutionLog []LogEntry        `json:"execution_log"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Run is the persisted record of one pipeline execution.
type Run struct {
	JobID      string          `json:"job_id"`
	Input      JobInput        `json:"input"`
	FinalState PipelineState   `json:"final_state"`
	Result     *PipelineResult `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ArtifactKind names a persisted per-job JSON document.
type ArtifactKind string

const (
	ArtifactJobSpec      ArtifactKind = "job_specification"
	ArtifactArticle      ArtifactKind = "article"
	ArtifactExtensions   ArtifactKind = "extensions"
	ArtifactQCReport     ArtifactKind = "qc_report"
	ArtifactExecutionLog ArtifactKind = "execution_log"
)

// AllArtifactKinds lists every persisted artifact kind.
func AllArtifactKinds() []ArtifactKind {
	return []ArtifactKind{
		ArtifactJobSpec,
		ArtifactArticle,
		ArtifactExtensions,
		ArtifactQCReport,
		ArtifactExecutionLog,
	}
}
