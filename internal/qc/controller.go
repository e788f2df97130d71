// Package qc validates generated articles against their job specification.
// The generated article and its self-declared extensions are untrusted
// input: every claim is checked, none is taken at face value.
package qc

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/textkit"
)

// Config tunes the quality checks.
type Config struct {
	// LSIMin/LSIMax bound the supporting-vocabulary count near the anchor.
	LSIMin int
	LSIMax int
	// LSIWindow is the sentence radius around the anchor sentence.
	LSIWindow int
	// MinTrustSources is the minimum total citation count.
	MinTrustSources int
}

// DefaultConfig returns the standard check thresholds.
func DefaultConfig() Config {
	return Config{
		LSIMin:          6,
		LSIMax:          10,
		LSIWindow:       2,
		MinTrustSources: 3,
	}
}

// Controller runs the independent quality checks.
type Controller struct {
	lex *lexicon.Lexicon
	cfg Config
}

// NewController creates a Controller.
func NewController(lex *lexicon.Lexicon, cfg Config) *Controller {
	if cfg.LSIMin <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{lex: lex, cfg: cfg}
}

// Validate runs every check against the (job, extensions, article) triple and
// derives the overall status. It is a pure function of its inputs: repeated
// validation of the same triple yields the same report.
func (c *Controller) Validate(job *model.JobSpecification, exts model.Extensions, articleText string) model.QCReport {
	var report model.QCReport

	// Check order is fixed so reports are reproducible.
	report.Issues = append(report.Issues, c.checkPlacement(job, articleText)...)
	report.Issues = append(report.Issues, c.checkLSI(job, articleText)...)
	report.Issues = append(report.Issues, c.checkAnchorRisk(job)...)
	report.Issues = append(report.Issues, c.checkCompliance(job, articleText)...)
	report.Issues = append(report.Issues, c.checkTrustSources(job, articleText)...)
	report.Issues = append(report.Issues, c.checkIntent(job, exts)...)
	report.Issues = append(report.Issues, c.checkBridgeDeclaration(job, exts)...)

	if job.Constraints.RequireSignoff {
		report.Status = model.QCNeedsSignoff
	}
	report.Recompute()
	return report
}

// checkPlacement flags an anchor link inside a first- or second-level
// heading, and an article that carries no anchor link at all.
func (c *Controller) checkPlacement(job *model.JobSpecification, text string) []model.Issue {
	if _, offset := textkit.FindLink(text, job.Input.TargetURL); offset < 0 {
		return []model.Issue{{
			Category:    model.IssueLinkPlacement,
			Severity:    model.SeverityHigh,
			Message:     "anchor link to the target is missing from the article",
			AutoFixable: true,
		}}
	}

	for _, line := range strings.Split(text, "\n") {
		level := textkit.HeadingLevel(line)
		if level == 0 || level > 2 {
			continue
		}
		if _, off := textkit.FindLink(line, job.Input.TargetURL); off >= 0 {
			return []model.Issue{{
				Category:    model.IssueLinkPlacement,
				Severity:    model.SeverityMedium,
				Message:     fmt.Sprintf("anchor link placed inside a level-%d heading", level),
				AutoFixable: true,
			}}
		}
	}
	return nil
}

// checkLSI counts supporting vocabulary within the sentence window around
// the anchor link.
func (c *Controller) checkLSI(job *model.JobSpecification, text string) []model.Issue {
	count, found := c.lsiCount(job, text)
	if !found {
		// Missing link is the placement check's finding; nothing to count.
		return nil
	}
	if count >= c.cfg.LSIMin && count <= c.cfg.LSIMax {
		return nil
	}

	direction := "sparse"
	if count > c.cfg.LSIMax {
		direction = "dense"
	}
	return []model.Issue{{
		Category:    model.IssueLSI,
		Severity:    model.SeverityMedium,
		Message:     fmt.Sprintf("supporting vocabulary near anchor is too %s: %d terms, expected %d-%d", direction, count, c.cfg.LSIMin, c.cfg.LSIMax),
		AutoFixable: true,
	}}
}

// lsiCount returns the supporting-term count in the anchor window and
// whether the anchor link was found at all.
func (c *Controller) lsiCount(job *model.JobSpecification, text string) (int, bool) {
	sentences := textkit.Sentences(text)
	idx := anchorSentenceIndex(sentences, job.Input.TargetURL)
	if idx < 0 {
		return 0, false
	}

	lo := max(idx-c.cfg.LSIWindow, 0)
	hi := min(idx+c.cfg.LSIWindow, len(sentences)-1)
	window := strings.ToLower(strings.Join(sentences[lo:hi+1], " "))

	count := 0
	for _, term := range job.Constraints.LSITerms {
		count += strings.Count(window, strings.ToLower(term))
	}
	return count, true
}

func anchorSentenceIndex(sentences []string, targetURL string) int {
	for i, s := range sentences {
		if _, off := textkit.FindLink(s, targetURL); off >= 0 {
			return i
		}
	}
	return -1
}

// checkAnchorRisk grades the anchor heuristically. High risk is critical and
// fixable only by downgrading the anchor type.
func (c *Controller) checkAnchorRisk(job *model.JobSpecification) []model.Issue {
	risk := AnchorRisk(c.lex, job.Anchor, job.Constraints.Language)
	switch risk {
	case "high":
		return []model.Issue{{
			Category:    model.IssueAnchorRisk,
			Severity:    model.SeverityCritical,
			Message:     fmt.Sprintf("anchor %q is high risk: commercial exact-match anchor", job.Anchor.Text),
			AutoFixable: true,
		}}
	case "medium":
		return []model.Issue{{
			Category: model.IssueAnchorRisk,
			Severity: model.SeverityMedium,
			Message:  fmt.Sprintf("anchor %q carries moderate commercial risk", job.Anchor.Text),
		}}
	default:
		return nil
	}
}

// AnchorRisk returns "low", "medium", or "high" for an anchor profile.
func AnchorRisk(lex *lexicon.Lexicon, a model.AnchorProfile, lang string) string {
	pack := lex.Pack(lang)
	tokens := textkit.Tokenize(a.Text)

	superlative := hasAnyToken(tokens, pack.Superlatives)
	transactional := hasAnyToken(tokens, pack.Intents[string(model.IntentTransactional)])

	switch {
	case a.Type == model.AnchorExact && len(tokens) == 1 && (superlative || transactional):
		return "high"
	case a.Type == model.AnchorExact && superlative && transactional:
		return "high"
	case a.Type == model.AnchorExact && (superlative || transactional):
		return "medium"
	case transactional:
		return "medium"
	default:
		return "low"
	}
}

func hasAnyToken(tokens, keywords []string) bool {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(k)] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// checkCompliance requires the regulated-vertical disclaimer verbatim.
func (c *Controller) checkCompliance(job *model.JobSpecification, text string) []model.Issue {
	disclaimer := job.Constraints.RequiredDisclaimer
	if disclaimer == "" || strings.Contains(text, disclaimer) {
		return nil
	}
	return []model.Issue{{
		Category:    model.IssueCompliance,
		Severity:    model.SeverityCritical,
		Message:     "required regulated-vertical disclaimer is missing from the article",
		AutoFixable: true,
	}}
}

// checkTrustSources classifies citations into authority tiers and requires
// at least one T1 source plus a minimum total count.
func (c *Controller) checkTrustSources(job *model.JobSpecification, text string) []model.Issue {
	hosts := citationHosts(text, job.Input.TargetURL)

	t1 := 0
	for _, h := range hosts {
		if c.lex.TrustTiers.TierFor(h) == 1 {
			t1++
		}
	}

	var issues []model.Issue
	if t1 == 0 {
		issues = append(issues, model.Issue{
			Category: model.IssueTrustSources,
			Severity: model.SeverityCritical,
			Message:  "no tier-1 (government/academic) source cited",
		})
	}
	if len(hosts) < c.cfg.MinTrustSources {
		issues = append(issues, model.Issue{
			Category: model.IssueTrustSources,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("only %d citations, minimum is %d", len(hosts), c.cfg.MinTrustSources),
		})
	}
	return issues
}

// citationHosts returns the distinct hosts of every markdown link except the
// anchor link itself, in order of first appearance.
func citationHosts(text, targetURL string) []string {
	var hosts []string
	seen := make(map[string]struct{})
	for _, m := range textkit.MarkdownLink.FindAllStringSubmatch(text, -1) {
		raw := m[2]
		if strings.Contains(raw, targetURL) || strings.Contains(targetURL, raw) {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	return hosts
}

// checkIntent fails hard on an off-alignment job: the wrapper strategy can
// carry it editorially, but it must never pass unreviewed.
func (c *Controller) checkIntent(job *model.JobSpecification, exts model.Extensions) []model.Issue {
	alignment := job.Intent.Alignment
	if exts.Intent != nil {
		alignment = exts.Intent.Alignment
	}
	if alignment.Overall != model.AlignmentOff {
		return nil
	}
	return []model.Issue{{
		Category: model.IssueIntentMismatch,
		Severity: model.SeverityCritical,
		Message:  "overall intent alignment is off",
	}}
}

// checkBridgeDeclaration compares the writer's self-declared bridge type
// against the specification's recommendation.
func (c *Controller) checkBridgeDeclaration(job *model.JobSpecification, exts model.Extensions) []model.Issue {
	if exts.Links == nil {
		return []model.Issue{{
			Category: model.IssueBridgeConflict,
			Severity: model.SeverityMedium,
			Message:  "writer did not declare the bridge type used",
		}}
	}
	if exts.Links.BridgeUsed == job.Intent.Bridge {
		return nil
	}
	return []model.Issue{{
		Category: model.IssueBridgeConflict,
		Severity: model.SeverityMedium,
		Message:  fmt.Sprintf("writer declared bridge %q but the specification recommends %q", exts.Links.BridgeUsed, job.Intent.Bridge),
	}}
}
