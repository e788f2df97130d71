// Package pipeline sequences assembly, generation, validation, and the
// conditional rescue step into a terminal delivered or aborted outcome.
// Every transition is logged; replaying identical inputs against identical
// deterministic collaborators reproduces an identical log.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/assemble"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/qc"
	"github.com/sells-group/linkforge/internal/store"
	"github.com/sells-group/linkforge/internal/textkit"
	"github.com/sells-group/linkforge/internal/writer"
)

// Machine drives one job at a time through the fixed state set. Concurrent
// runs share nothing but the machine's collaborators and the replay guard.
type Machine struct {
	assembler *assemble.Assembler
	writer    writer.Writer
	qc        *qc.Controller
	store     store.Store
	guard     *Guard
}

// New creates a Machine. st may be nil to disable persistence;
// guardCapacity <= 0 selects the default replay-guard size.
func New(assembler *assemble.Assembler, w writer.Writer, controller *qc.Controller, st store.Store, guardCapacity int) *Machine {
	if guardCapacity <= 0 {
		guardCapacity = defaultGuardCapacity
	}
	return &Machine{
		assembler: assembler,
		writer:    w,
		qc:        controller,
		store:     st,
		guard:     NewGuard(guardCapacity),
	}
}

// run is the per-execution working state: one job owns it exclusively.
type run struct {
	state  model.PipelineState
	result *model.PipelineResult
}

func (r *run) transition(to model.PipelineState, success bool, msg string, data map[string]any) {
	r.result.ExecutionLog = append(r.result.ExecutionLog, model.LogEntry{
		Timestamp: time.Now().UTC(),
		FromState: r.state,
		ToState:   to,
		Success:   success,
		Message:   msg,
		Data:      data,
	})
	r.state = to
	r.result.FinalState = to
}

// note logs an intra-state success without changing state.
func (r *run) note(msg string, data map[string]any) {
	r.result.ExecutionLog = append(r.result.ExecutionLog, model.LogEntry{
		Timestamp: time.Now().UTC(),
		FromState: r.state,
		ToState:   r.state,
		Success:   true,
		Message:   msg,
		Data:      data,
	})
}

// Execute runs one job to a terminal state. The caller always receives a
// complete result; fatal conditions land in ABORT with a readable reason
// and the full execution log, never as an escaped error.
func (m *Machine) Execute(ctx context.Context, in model.JobInput) *model.PipelineResult {
	r := &run{
		state: model.StateReceive,
		result: &model.PipelineResult{
			FinalState: model.StateReceive,
		},
	}
	log := zap.L().With(
		zap.String("publisher", in.PublisherDomain),
		zap.String("target", in.TargetURL),
	)
	log.Info("pipeline: run started")

	r.transition(model.StatePreflight, true, "job received", nil)

	// PREFLIGHT: assemble and validate the specification.
	job, err := m.assembler.Assemble(ctx, in)
	if err != nil {
		return m.abort(ctx, r, "assembly failed: "+err.Error())
	}
	r.result.JobID = job.JobID
	r.result.Job = job
	r.note("job specification assembled and validated", map[string]any{
		"job_id": job.JobID,
		"bridge": string(job.Intent.Bridge),
	})

	if !m.guard.Admit(specHash(job)) {
		return m.abort(ctx, r, "identical job payload already processed; refusing re-entry")
	}

	r.transition(model.StateWrite, true, "preflight complete", nil)

	// WRITE: invoke the writer collaborator.
	article, err := m.writer.Generate(ctx, job)
	if err != nil {
		return m.abort(ctx, r, "generation failed: "+err.Error())
	}
	r.result.ArticleText = article.Text
	r.result.Extensions = &article.Extensions
	r.note("article generated", map[string]any{
		"word_count": article.WordCount,
		"model":      article.Model,
	})

	r.transition(model.StateQC, true, "generation complete", nil)

	// QC: validate the untrusted output against the specification.
	report := m.qc.Validate(job, article.Extensions, article.Text)
	r.result.QCReport = &report
	r.note("validation complete", map[string]any{
		"status": string(report.Status),
		"issues": len(report.Issues),
	})

	switch {
	case report.Status == model.QCPass:
		return m.deliver(ctx, r, "all checks passed")

	case report.Status == model.QCNeedsSignoff:
		return m.deliver(ctx, r, "delivered flagged for human review")

	case report.HasAutoFixable():
		return m.rescue(ctx, r, job, &report)

	case report.Status == model.QCWarning:
		return m.deliver(ctx, r, "delivered with warnings")

	default:
		return m.abort(ctx, r, "quality validation failed with no auto-fixable issue")
	}
}

// rescue applies the single permitted repair and re-derives the report status
// from the remaining unresolved issues. Validation is never re-run: this is
// a status recomputation, not a second pass.
func (m *Machine) rescue(ctx context.Context, r *run, job *model.JobSpecification, report *model.QCReport) *model.PipelineResult {
	r.transition(model.StateRescue, true, "auto-fixable issue found", nil)

	fixer := qc.NewFixer(m.qc)
	fixed, fixLog := fixer.FixOnce(job, report, r.result.ArticleText)
	if fixLog == nil {
		return m.abort(ctx, r, "no repair applied; unresolved issues remain")
	}
	r.result.ArticleText = fixed
	r.result.AutoFix = fixLog
	r.note("repair applied", map[string]any{
		"category": string(fixLog.Category),
		"action":   fixLog.Action,
	})

	if report.Recompute() == model.QCFail {
		return m.abort(ctx, r, "unresolved critical issues remain after repair")
	}
	return m.deliver(ctx, r, "delivered after repair")
}

func (m *Machine) deliver(ctx context.Context, r *run, msg string) *model.PipelineResult {
	r.transition(model.StateDeliver, true, msg, nil)
	r.result.Success = true
	m.persist(ctx, r.result)
	zap.L().Info("pipeline: delivered",
		zap.String("job_id", r.result.JobID),
		zap.String("qc_status", qcStatus(r.result)),
	)
	return r.result
}

func (m *Machine) abort(ctx context.Context, r *run, reason string) *model.PipelineResult {
	r.transition(model.StateAbort, false, reason, nil)
	r.result.Success = false
	r.result.ErrorMessage = reason
	m.persist(ctx, r.result)
	zap.L().Warn("pipeline: aborted",
		zap.String("job_id", r.result.JobID),
		zap.String("reason", reason),
	)
	return r.result
}

// persist saves the terminal result and its artifacts exactly once, after a
// terminal state is reached. Persistence failure never changes the outcome.
func (m *Machine) persist(ctx context.Context, result *model.PipelineResult) {
	if m.store == nil {
		return
	}

	var input model.JobInput
	if result.Job != nil {
		input = result.Job.Input
	}
	if err := m.store.SaveRun(ctx, &model.Run{
		JobID:      result.JobID,
		Input:      input,
		FinalState: result.FinalState,
		Result:     result,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		zap.L().Warn("pipeline: failed to save run", zap.Error(err))
		return
	}

	artifacts := map[model.ArtifactKind]any{
		model.ArtifactJobSpec:      result.Job,
		model.ArtifactArticle:      map[string]string{"text": result.ArticleText},
		model.ArtifactExtensions:   result.Extensions,
		model.ArtifactQCReport:     result.QCReport,
		model.ArtifactExecutionLog: result.ExecutionLog,
	}
	for kind, payload := range artifacts {
		if payload == nil {
			continue
		}
		data, err := json.Marshal(payload)
		if err != nil {
			zap.L().Warn("pipeline: failed to marshal artifact", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		if err := m.store.SaveArtifact(ctx, result.JobID, kind, data); err != nil {
			zap.L().Warn("pipeline: failed to save artifact", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
}

// specHash is the content hash used by the replay guard. Canonical JSON of
// the assembled fields excluding the per-run job ID and the SERP cache
// provenance flags: a resubmission served from the cache must hash the same
// as the first run that populated it.
func specHash(job *model.JobSpecification) string {
	clone := *job
	clone.JobID = ""
	clone.Serp.Main.FromCache = false
	if len(job.Serp.Clusters) > 0 {
		clusters := make([]model.QueryAnalysis, len(job.Serp.Clusters))
		copy(clusters, job.Serp.Clusters)
		for i := range clusters {
			clusters[i].FromCache = false
		}
		clone.Serp.Clusters = clusters
	}
	data, err := json.Marshal(&clone)
	if err != nil {
		return job.JobID
	}
	return textkit.Hash(data)
}

func qcStatus(result *model.PipelineResult) string {
	if result.QCReport == nil {
		return ""
	}
	return string(result.QCReport.Status)
}
