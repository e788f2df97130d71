// Package writer generates articles from job specifications. The pipeline
// depends on the Writer interface only; the LLM-backed implementation and
// the deterministic stub are chosen at composition time.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/pkg/anthropic"
)

// Writer produces an article plus self-declared extensions for a job.
type Writer interface {
	Generate(ctx context.Context, job *model.JobSpecification) (*model.GeneratedArticle, error)
}

// Config holds LLM writer settings.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// LLMWriter generates articles via the Anthropic API.
type LLMWriter struct {
	client anthropic.Client
	cfg    Config
}

// NewLLMWriter creates an LLMWriter.
func NewLLMWriter(client anthropic.Client, cfg Config) *LLMWriter {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &LLMWriter{client: client, cfg: cfg}
}

const systemPrompt = `You write publisher-ready articles in markdown. Follow the brief exactly:
respect the bridge strategy, the article angle, the required subtopics, and the
forbidden angles. Place the anchor link naturally in body copy, never in a
heading. Cite authoritative sources as markdown links. After the article,
output a fenced json block declaring the extensions:
` + "```json" + `
{"links": {"bridge_used": "<strong|pivot|wrapper>", "anchor_text": "...", "target_url": "..."}}
` + "```"

// Generate builds the brief from the specification, invokes the model, and
// parses the article text and extensions from the reply.
func (w *LLMWriter) Generate(ctx context.Context, job *model.JobSpecification) (*model.GeneratedArticle, error) {
	temp := w.cfg.Temperature
	resp, err := w.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       w.cfg.Model,
		MaxTokens:   w.cfg.MaxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildBrief(job)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "writer: generate")
	}
	resp.Usage.LogCost(resp.Model, "write")

	text, exts := splitExtensions(resp.Text)
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("writer: model returned an empty article")
	}

	return &model.GeneratedArticle{
		Text:       text,
		Extensions: exts,
		WordCount:  len(strings.Fields(text)),
		Model:      resp.Model,
	}, nil
}

func buildBrief(job *model.JobSpecification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Publisher: %s (tone: %s)\n", job.Publisher.Domain, job.Publisher.ToneClass)
	fmt.Fprintf(&b, "Target page: %s (%s)\n", job.Input.TargetURL, job.Target.Title)
	fmt.Fprintf(&b, "Anchor text: %q (type: %s)\n", job.Anchor.Text, job.Anchor.Type)
	fmt.Fprintf(&b, "Language: %s, minimum %d words\n", job.Constraints.Language, job.Constraints.MinWordCount)
	fmt.Fprintf(&b, "Bridge strategy: %s\n", job.Constraints.Bridge)
	fmt.Fprintf(&b, "Article angle: %s\n", job.Constraints.ArticleAngle)
	if len(job.Constraints.RequiredSubtopics) > 0 {
		fmt.Fprintf(&b, "Cover these subtopics: %s\n", strings.Join(job.Constraints.RequiredSubtopics, "; "))
	}
	if len(job.Constraints.ForbiddenAngles) > 0 {
		fmt.Fprintf(&b, "Never take these angles: %s\n", strings.Join(job.Constraints.ForbiddenAngles, "; "))
	}
	if len(job.Constraints.LSITerms) > 0 {
		fmt.Fprintf(&b, "Use this supporting vocabulary near the anchor link: %s\n", strings.Join(job.Constraints.LSITerms, ", "))
	}
	if job.Constraints.RequiredDisclaimer != "" {
		fmt.Fprintf(&b, "Include this disclaimer verbatim: %s\n", job.Constraints.RequiredDisclaimer)
	}
	return b.String()
}

// splitExtensions separates the trailing fenced json extensions block from
// the article body. A malformed or missing block yields empty extensions;
// the quality controller flags the absence, generation does not fail.
func splitExtensions(text string) (string, model.Extensions) {
	var exts model.Extensions

	marker := "```json"
	idx := strings.LastIndex(text, marker)
	if idx < 0 {
		return strings.TrimSpace(text), exts
	}

	rest := text[idx+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(text), exts
	}

	payload := strings.TrimSpace(rest[:end])
	if err := json.Unmarshal([]byte(payload), &exts); err != nil {
		zap.L().Warn("writer: unparsable extensions block", zap.Error(err))
		return strings.TrimSpace(text[:idx]), model.Extensions{}
	}
	return strings.TrimSpace(text[:idx]), exts
}
