// Package assemble orchestrates profiling, classification, query selection,
// SERP research, and intent alignment into one validated, immutable
// JobSpecification.
package assemble

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/linkforge/internal/anchor"
	"github.com/sells-group/linkforge/internal/intent"
	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/query"
	"github.com/sells-group/linkforge/internal/serp"
	"github.com/sells-group/linkforge/internal/textkit"
	"github.com/sells-group/linkforge/pkg/profiler"
)

const (
	defaultMinWordCount = 800
	maxLSITerms         = 14
)

// Config tunes assembly behavior.
type Config struct {
	// DefaultMinWordCount applies when the job input does not set one.
	DefaultMinWordCount int
	// SignoffVerticals lists vertical names whose jobs always require a
	// human sign-off before publication.
	SignoffVerticals []string
}

// DefaultConfig returns the standard assembly settings.
func DefaultConfig() Config {
	return Config{
		DefaultMinWordCount: defaultMinWordCount,
		SignoffVerticals:    []string{"gambling", "finance", "health"},
	}
}

// Assembler builds job specifications.
type Assembler struct {
	cfg        Config
	profiler   profiler.Client
	classifier *anchor.Classifier
	selector   *query.Selector
	researcher *serp.Researcher
	engine     *intent.Engine
	lex        *lexicon.Lexicon
}

// New creates an Assembler with all collaborators.
func New(cfg Config, pf profiler.Client, classifier *anchor.Classifier, selector *query.Selector, researcher *serp.Researcher, engine *intent.Engine, lex *lexicon.Lexicon) *Assembler {
	if cfg.DefaultMinWordCount <= 0 {
		cfg.DefaultMinWordCount = defaultMinWordCount
	}
	return &Assembler{
		cfg:        cfg,
		profiler:   pf,
		classifier: classifier,
		selector:   selector,
		researcher: researcher,
		engine:     engine,
		lex:        lex,
	}
}

// Assemble runs the preflight sequence for one job input. The target and
// publisher profiles are independent and fetched concurrently; everything
// downstream is sequential. A target fetch with a non-success status aborts
// assembly with a descriptive reason; no partial specification is returned.
func (a *Assembler) Assemble(ctx context.Context, in model.JobInput) (*model.JobSpecification, error) {
	log := zap.L().With(
		zap.String("publisher", in.PublisherDomain),
		zap.String("target", in.TargetURL),
	)

	var targetPage, publisherPage *model.PageProfile
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.profiler.Profile(gCtx, in.TargetURL)
		if err != nil {
			return eris.Wrap(err, "assemble: profile target")
		}
		targetPage = p
		return nil
	})
	g.Go(func() error {
		p, err := a.profiler.Profile(gCtx, publisherURL(in.PublisherDomain))
		if err != nil {
			return eris.Wrap(err, "assemble: profile publisher")
		}
		publisherPage = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if targetPage.HTTPStatus < 200 || targetPage.HTTPStatus >= 300 {
		return nil, eris.Errorf("assemble: target page fetch returned status %d for %s", targetPage.HTTPStatus, in.TargetURL)
	}

	target := targetProfile(in.TargetURL, targetPage)
	publisher := publisherProfile(in.PublisherDomain, publisherPage)

	anchorProfile := a.classifier.Classify(anchor.Input{
		Text:           in.AnchorText,
		TargetTitle:    target.Title,
		TargetEntities: target.Entities,
		Hint:           in.AnchorTypeHint,
		Language:       firstNonEmpty(in.Language, target.Language),
	})
	log.Debug("assemble: anchor classified",
		zap.String("type", string(anchorProfile.Type)),
		zap.String("intent_hint", string(anchorProfile.IntentHint)),
	)

	selection := a.selector.Select(target, anchorProfile, in.Language)
	log.Debug("assemble: queries selected",
		zap.String("main", selection.MainQuery),
		zap.Strings("cluster", selection.ClusterQueries),
	)

	research, err := a.researcher.Research(ctx, selection)
	if err != nil {
		return nil, eris.Wrap(err, "assemble: serp research")
	}

	intentExt := a.engine.Align(publisher, target, anchorProfile, research)
	log.Info("assemble: intent aligned",
		zap.String("overall", string(intentExt.Alignment.Overall)),
		zap.String("bridge", string(intentExt.Bridge)),
	)

	job := &model.JobSpecification{
		JobID:     uuid.New().String(),
		Input:     in,
		Publisher: publisher,
		Target:    target,
		Anchor:    anchorProfile,
		Serp:      research,
		Intent:    intentExt,
	}
	job.Constraints = a.constraints(job, selection.Language)

	if err := job.Validate(); err != nil {
		return nil, eris.Wrap(err, "assemble: specification validation")
	}
	return job, nil
}

func (a *Assembler) constraints(job *model.JobSpecification, lang string) model.GenerationConstraints {
	minWords := job.Input.MinWordCount
	if minWords <= 0 {
		minWords = a.cfg.DefaultMinWordCount
	}

	c := model.GenerationConstraints{
		MinWordCount:      minWords,
		Language:          lang,
		Bridge:            job.Intent.Bridge,
		ArticleAngle:      job.Intent.ArticleAngle,
		RequiredSubtopics: job.Intent.RequiredSubtopics,
		ForbiddenAngles:   job.Intent.ForbiddenAngles,
		LSITerms:          lsiTerms(job),
	}

	if v := a.lex.MatchVertical(job.Input.TargetURL, job.Input.PublisherDomain); v != nil {
		c.RequiredDisclaimer = v.Disclaimer(lang, a.lex.DefaultLanguage)
		for _, name := range a.cfg.SignoffVerticals {
			if strings.EqualFold(name, v.Name) {
				c.RequireSignoff = true
				break
			}
		}
	}
	return c
}

// lsiTerms collects the supporting vocabulary expected near the anchor link:
// SERP subtopics plus the target's topics and entities.
func lsiTerms(job *model.JobSpecification) []string {
	var terms []string
	terms = append(terms, job.Intent.RequiredSubtopics...)
	terms = append(terms, job.Target.Topics...)
	terms = append(terms, job.Target.Entities...)
	terms = textkit.Dedupe(terms)
	if len(terms) > maxLSITerms {
		terms = terms[:maxLSITerms]
	}
	return terms
}

func targetProfile(rawURL string, p *model.PageProfile) model.TargetProfile {
	return model.TargetProfile{
		URL:               rawURL,
		Title:             p.Title,
		Headings:          p.Headings,
		Entities:          p.Entities,
		Topics:            p.Topics,
		Language:          p.Language,
		ContentType:       p.ContentType,
		CommercialSignals: p.CommercialSignals,
		CandidateQueries:  p.CandidateQueries,
	}
}

func publisherProfile(domain string, p *model.PageProfile) model.PublisherProfile {
	return model.PublisherProfile{
		Domain:           domain,
		Title:            p.Title,
		ToneClass:        toneClass(p.ToneClass),
		Commerciality:    commerciality(p.Commerciality),
		Topics:           p.Topics,
		Language:         p.Language,
		BrandSafetyNotes: p.BrandSafetyNotes,
	}
}

func toneClass(raw string) model.ToneClass {
	switch model.ToneClass(strings.ToLower(raw)) {
	case model.ToneAcademic, model.ToneAuthorityPublic, model.ToneJournalistic, model.ToneCasual, model.TonePromotional:
		return model.ToneClass(strings.ToLower(raw))
	default:
		return model.ToneJournalistic
	}
}

func commerciality(raw string) model.CommercialityLevel {
	switch model.CommercialityLevel(strings.ToLower(raw)) {
	case model.CommercialityNone, model.CommercialityLow, model.CommercialityMedium, model.CommercialityHigh:
		return model.CommercialityLevel(strings.ToLower(raw))
	default:
		return model.CommercialityLow
	}
}

func publisherURL(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
