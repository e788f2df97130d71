package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/linkforge/internal/model"
)

// StubWriter produces a deterministic article straight from the
// specification. Used for dry runs and tests; identical jobs always yield
// identical articles.
type StubWriter struct {
	// OmitDisclaimer leaves a required disclaimer out, exercising the
	// compliance rescue path.
	OmitDisclaimer bool
	// OmitAnchorLink drops the anchor link entirely.
	OmitAnchorLink bool
}

// Generate renders the stub article.
func (s *StubWriter) Generate(_ context.Context, job *model.JobSpecification) (*model.GeneratedArticle, error) {
	var b strings.Builder

	title := job.Target.Title
	if title == "" {
		title = job.Serp.MainQuery
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%s\n\n", job.Intent.ArticleAngle)

	if !s.OmitAnchorLink {
		fmt.Fprintf(&b, "Readers who want the practical side can start with [%s](%s). ", job.Anchor.Text, job.Input.TargetURL)
		if len(job.Constraints.LSITerms) > 0 {
			fmt.Fprintf(&b, "The discussion keeps returning to %s.", strings.Join(job.Constraints.LSITerms, ", "))
		}
		b.WriteString("\n\n")
	}

	for _, sub := range job.Constraints.RequiredSubtopics {
		fmt.Fprintf(&b, "## %s\n\nA closer look at %s in the context of %s.\n\n", sub, sub, job.Serp.MainQuery)
	}

	b.WriteString("Sources: [statistics](https://www.scb.se/stats), " +
		"[background](https://en.wikipedia.org/wiki/Reference), " +
		"[reporting](https://www.reuters.com/article).\n")

	if job.Constraints.RequiredDisclaimer != "" && !s.OmitDisclaimer {
		fmt.Fprintf(&b, "\n%s\n", job.Constraints.RequiredDisclaimer)
	}

	text := b.String()
	return &model.GeneratedArticle{
		Text: text,
		Extensions: model.Extensions{
			Links: &model.LinksExtension{
				BridgeUsed: job.Intent.Bridge,
				AnchorText: job.Anchor.Text,
				TargetURL:  job.Input.TargetURL,
			},
			Intent: &job.Intent,
		},
		WordCount: len(strings.Fields(text)),
		Model:     "stub",
	}, nil
}
