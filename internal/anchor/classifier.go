// Package anchor classifies proposed anchor texts through a fixed rule
// cascade. Classification is pure: the same inputs always produce the same
// profile, and unmatched input degrades to documented defaults instead of
// failing.
package anchor

import (
	"strings"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/textkit"
)

// Classifier resolves anchor type and implied intent.
type Classifier struct {
	lex *lexicon.Lexicon
}

// NewClassifier creates a Classifier over the given lexicon.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Input carries the classification context. TargetTitle and TargetEntities
// are optional; Hint short-circuits the cascade.
type Input struct {
	Text           string
	TargetTitle    string
	TargetEntities []string
	Hint           model.AnchorType
	Language       string
}

// Classify runs the rule cascade, in order: explicit hint, generic CTA
// lexicon, known-entity substring, token overlap against the target title,
// then length-based defaults.
func (c *Classifier) Classify(in Input) model.AnchorProfile {
	text := strings.TrimSpace(in.Text)
	anchorType := c.resolveType(in, text)
	return model.AnchorProfile{
		Text:       text,
		Type:       anchorType,
		IntentHint: c.inferIntent(text, anchorType, in.Language),
	}
}

func (c *Classifier) resolveType(in Input, text string) model.AnchorType {
	if in.Hint != "" {
		return in.Hint
	}

	lower := strings.ToLower(text)
	pack := c.lex.Pack(in.Language)

	for _, cta := range pack.CTA {
		if lower == cta || strings.Contains(lower, cta) {
			return model.AnchorGeneric
		}
	}

	for _, entity := range in.TargetEntities {
		if entity != "" && textkit.ContainsFold(text, entity) {
			return model.AnchorBrand
		}
	}

	tokens := textkit.Tokenize(text)
	if in.TargetTitle != "" {
		overlap := textkit.OverlapRatio(tokens, textkit.Tokenize(in.TargetTitle))
		switch {
		case overlap >= 0.75:
			return model.AnchorExact
		case overlap >= 0.5:
			return model.AnchorPartial
		case len(tokens) <= 3 && overlap > 0:
			return model.AnchorPartial
		}
	}

	// Unmatched input degrades to defaults: short anchors read as generic
	// calls to action, longer ones as partial-match phrases.
	if len(tokens) <= 3 {
		return model.AnchorGeneric
	}
	return model.AnchorPartial
}

// inferIntent scores the anchor text against the per-language intent keyword
// sets; the intent with the most matches wins, ties broken by anchor type.
func (c *Classifier) inferIntent(text string, anchorType model.AnchorType, lang string) model.Intent {
	pack := c.lex.Pack(lang)
	tokens := textkit.Tokenize(text)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	best, bestScore, tied := model.Intent(""), 0, false
	// Fixed iteration order keeps scoring reproducible.
	for _, intent := range model.AllIntents() {
		keywords, ok := pack.Intents[string(intent)]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if strings.Contains(kw, " ") {
				if textkit.ContainsFold(text, kw) {
					score++
				}
				continue
			}
			if _, hit := tokenSet[kw]; hit {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = intent, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return defaultIntentFor(anchorType)
	}
	return best
}

func defaultIntentFor(anchorType model.AnchorType) model.Intent {
	switch anchorType {
	case model.AnchorBrand:
		return model.IntentNavigationalBrand
	case model.AnchorExact, model.AnchorPartial:
		return model.IntentCommercialResearch
	default:
		return model.IntentInfoPrimary
	}
}
