package qc

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/textkit"
)

// fixPriority is the fixed selection order for the single repair attempt.
var fixPriority = []model.IssueCategory{
	model.IssueLinkPlacement,
	model.IssueLSI,
	model.IssueAnchorRisk,
	model.IssueCompliance,
}

// Fixer applies at most one automated repair for the lifetime of a run.
// The limit is global, not per-issue.
type Fixer struct {
	ctrl *Controller

	mu        sync.Mutex
	attempted bool
}

// NewFixer creates a Fixer sharing the controller's lexicon and thresholds.
func NewFixer(ctrl *Controller) *Fixer {
	return &Fixer{ctrl: ctrl}
}

// FixOnce selects the first auto-fixable issue in priority order, applies
// its repair to the article text, and marks that issue resolved in the
// report. All other issues stay unresolved. A second invocation within the
// same run is a no-op.
func (f *Fixer) FixOnce(job *model.JobSpecification, report *model.QCReport, text string) (string, *model.AutoFixLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempted {
		return text, nil
	}
	f.attempted = true

	issue := selectFixable(report)
	if issue == nil {
		return text, nil
	}

	var (
		fixed  string
		action string
		detail string
	)
	switch issue.Category {
	case model.IssueLinkPlacement:
		fixed, detail = f.fixPlacement(job, text)
		action = "repositioned anchor link"
	case model.IssueLSI:
		fixed, detail = f.fixLSI(job, text)
		action = "adjusted supporting vocabulary near anchor"
	case model.IssueAnchorRisk:
		fixed, detail = f.fixAnchorRisk(job, text)
		action = "downgraded anchor type"
	case model.IssueCompliance:
		fixed = text + "\n\n" + job.Constraints.RequiredDisclaimer + "\n"
		action = "appended disclaimer"
		detail = job.Constraints.RequiredDisclaimer
	default:
		return text, nil
	}

	issue.Resolved = true
	zap.L().Info("qc: auto-fix applied",
		zap.String("job_id", job.JobID),
		zap.String("category", string(issue.Category)),
		zap.String("action", action),
	)
	return fixed, &model.AutoFixLog{
		Category: issue.Category,
		Action:   action,
		Detail:   detail,
	}
}

func selectFixable(report *model.QCReport) *model.Issue {
	for _, cat := range fixPriority {
		for i := range report.Issues {
			is := &report.Issues[i]
			if is.Category == cat && is.AutoFixable && !is.Resolved {
				return is
			}
		}
	}
	return nil
}

// fixPlacement strips the anchor link out of any H1/H2 heading and re-places
// it in body copy. A missing link is inserted as a closing paragraph.
func (f *Fixer) fixPlacement(job *model.JobSpecification, text string) (string, string) {
	target := job.Input.TargetURL
	link := fmt.Sprintf("[%s](%s)", job.Anchor.Text, target)

	if _, off := textkit.FindLink(text, target); off < 0 {
		sentence := fmt.Sprintf(anchorInsertTemplate(job.Constraints.Language), link)
		return strings.TrimRight(text, "\n") + "\n\n" + sentence + "\n", "inserted missing anchor link"
	}

	lines := strings.Split(text, "\n")
	moved := false
	for i, line := range lines {
		level := textkit.HeadingLevel(line)
		if level == 0 || level > 2 {
			continue
		}
		if linkText, off := textkit.FindLink(line, target); off >= 0 {
			// Keep the heading text, drop the link markup.
			lines[i] = textkit.MarkdownLink.ReplaceAllString(line, linkText)
			moved = true
		}
	}
	if !moved {
		return text, "anchor link already in body copy"
	}

	out := strings.Join(lines, "\n")
	sentence := fmt.Sprintf(anchorInsertTemplate(job.Constraints.Language), link)
	out = insertAfterFirstParagraph(out, sentence)
	return out, "moved anchor link out of heading into body copy"
}

// insertAfterFirstParagraph places para after the first non-heading
// paragraph block, or at the end when there is none.
func insertAfterFirstParagraph(text, para string) string {
	blocks := strings.Split(text, "\n\n")
	for i, b := range blocks {
		trimmed := strings.TrimSpace(b)
		if trimmed == "" || textkit.HeadingLevel(trimmed) > 0 {
			continue
		}
		rest := append([]string{para}, blocks[i+1:]...)
		return strings.Join(append(blocks[:i+1], rest...), "\n\n")
	}
	return strings.TrimRight(text, "\n") + "\n\n" + para + "\n"
}

// fixLSI weaves missing supporting vocabulary into the anchor's sentence
// window, or thins surplus occurrences when the window is over-dense.
func (f *Fixer) fixLSI(job *model.JobSpecification, text string) (string, string) {
	count, found := f.ctrl.lsiCount(job, text)
	if !found {
		return text, "anchor link not found; nothing to adjust"
	}

	if count < f.ctrl.cfg.LSIMin {
		missing := f.ctrl.cfg.LSIMin - count
		terms := job.Constraints.LSITerms
		if len(terms) > missing {
			terms = terms[:missing]
		}
		if len(terms) == 0 {
			return text, "no supporting vocabulary available"
		}
		sentence := fmt.Sprintf(lsiInsertTemplate(job.Constraints.Language), strings.Join(terms, ", "))
		out := insertAfterAnchorLine(text, job.Input.TargetURL, sentence)
		return out, fmt.Sprintf("added %d supporting terms near anchor", len(terms))
	}

	return f.thinWindow(job, text, count-f.ctrl.cfg.LSIMax)
}

func insertAfterAnchorLine(text, targetURL, sentence string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if _, off := textkit.FindLink(line, targetURL); off >= 0 {
			lines[i] = line + " " + sentence
			return strings.Join(lines, "\n")
		}
	}
	return text
}

// thinWindow removes surplus term occurrences from the anchor window,
// farthest sentences first, never touching the anchor sentence itself.
func (f *Fixer) thinWindow(job *model.JobSpecification, text string, surplus int) (string, string) {
	sentences := textkit.Sentences(text)
	idx := anchorSentenceIndex(sentences, job.Input.TargetURL)
	if idx < 0 || surplus <= 0 {
		return text, "window already within bounds"
	}

	lo := max(idx-f.ctrl.cfg.LSIWindow, 0)
	hi := min(idx+f.ctrl.cfg.LSIWindow, len(sentences)-1)

	removed := 0
	out := text
	for i := hi; i >= lo && removed < surplus; i-- {
		if i == idx {
			continue
		}
		updated := sentences[i]
		for _, term := range job.Constraints.LSITerms {
			for removed < surplus {
				pos := strings.Index(strings.ToLower(updated), strings.ToLower(term))
				if pos < 0 {
					break
				}
				updated = strings.TrimSpace(updated[:pos] + updated[pos+len(term):])
				removed++
			}
		}
		if updated != sentences[i] {
			out = strings.Replace(out, sentences[i], updated, 1)
		}
	}
	return out, fmt.Sprintf("removed %d surplus supporting terms near anchor", removed)
}

// fixAnchorRisk rewrites the anchor link text to a branded, lower-risk
// variant, downgrading the effective anchor type.
func (f *Fixer) fixAnchorRisk(job *model.JobSpecification, text string) (string, string) {
	brand := brandLabel(job)
	old := fmt.Sprintf("[%s](%s)", job.Anchor.Text, job.Input.TargetURL)
	replacement := fmt.Sprintf("[%s](%s)", brand, job.Input.TargetURL)
	if strings.Contains(text, old) {
		return strings.Replace(text, old, replacement, 1),
			fmt.Sprintf("anchor %q downgraded to branded anchor %q", job.Anchor.Text, brand)
	}

	// The writer may have altered the anchor text; rewrite whatever link
	// points at the target.
	if linkText, off := textkit.FindLink(text, job.Input.TargetURL); off >= 0 {
		current := fmt.Sprintf("[%s]", linkText)
		return strings.Replace(text, current, fmt.Sprintf("[%s]", brand), 1),
			fmt.Sprintf("anchor %q downgraded to branded anchor %q", linkText, brand)
	}
	return text, "anchor link not found; nothing to downgrade"
}

func brandLabel(job *model.JobSpecification) string {
	if len(job.Target.Entities) > 0 {
		return job.Target.Entities[0]
	}
	if u, err := url.Parse(job.Input.TargetURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return job.Target.Title
}

func anchorInsertTemplate(lang string) string {
	if strings.HasPrefix(lang, "sv") {
		return "Mer information finns hos %s."
	}
	return "More details are available at %s."
}

func lsiInsertTemplate(lang string) string {
	if strings.HasPrefix(lang, "sv") {
		return "Närliggande teman i sammanhanget är %s."
	}
	return "Closely related themes here include %s."
}
