// Package intent reconciles the four signal domains (publisher voice,
// anchor semantics, target-page offering, search intent) into an
// alignment matrix and a bridge-type decision. Every step is a fixed rule
// cascade: identical inputs always produce the identical decision.
package intent

import (
	"fmt"
	"strings"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/textkit"
)

const maxRequiredSubtopics = 10

// Thresholds for the topic-overlap cascade in the bridge decision. The
// cascade is load-bearing for the downstream strategy; do not tune casually.
const (
	strongOverlapThreshold = 0.7
	pivotOverlapThreshold  = 0.4
)

// compatiblePairs lists intent category pairs that read as partial alignment
// rather than off.
var compatiblePairs = map[[2]string]bool{
	{"info", "commercial"}:          true,
	{"commercial", "transactional"}: true,
	{"info", "support"}:             true,
}

// Engine computes intent alignment and the bridge decision.
type Engine struct {
	lex *lexicon.Lexicon
}

// NewEngine creates an Engine over the given lexicon.
func NewEngine(lex *lexicon.Lexicon) *Engine {
	return &Engine{lex: lex}
}

// Align combines the publisher, target, anchor, and SERP signals. The main
// query's result set is the authoritative primary SERP intent; cluster sets
// contribute secondary intents only. A low-alignment outcome is a valid
// branch that selects the wrapper strategy, not an error.
func (e *Engine) Align(pub model.PublisherProfile, target model.TargetProfile, anchor model.AnchorProfile, research model.SerpResearch) model.IntentExtension {
	primary := research.Main.DominantIntent
	if primary == "" {
		primary = model.IntentInfoPrimary
	}
	secondary := secondaryIntents(primary, research)

	targetIntent := TargetPageIntent(target)
	publisherIntent := PublisherRoleIntent(pub)

	alignment := model.IntentAlignment{
		AnchorVsSerp:    Compare(anchor.IntentHint, primary),
		TargetVsSerp:    Compare(targetIntent, primary),
		PublisherVsSerp: Compare(publisherIntent, primary),
	}
	alignment.Overall = overall(alignment)

	overlap := textkit.OverlapRatio(pub.Topics, target.Topics)
	bridge := bridgeDecision(alignment.Overall, overlap)

	ext := model.IntentExtension{
		PrimarySerpIntent:   primary,
		SecondarySerpIntent: secondary,
		TargetPageIntent:    targetIntent,
		PublisherRoleIntent: publisherIntent,
		AnchorIntent:        anchor.IntentHint,
		Alignment:           alignment,
		Bridge:              bridge,
		TopicOverlapRatio:   overlap,
		RequiredSubtopics:   collectSubtopics(research),
		ForbiddenAngles:     e.forbiddenAngles(pub, alignment.Overall),
		ArticleAngle:        articleAngle(bridge, target),
	}
	ext.Rationale = rationale(ext, research)
	return ext
}

func secondaryIntents(primary model.Intent, research model.SerpResearch) []model.Intent {
	var all []model.Intent
	for _, c := range research.Clusters {
		all = append(all, c.DominantIntent)
		all = append(all, c.SecondaryIntents...)
	}
	seen := map[model.Intent]struct{}{primary: {}}
	var out []model.Intent
	for _, in := range all {
		if in == "" {
			continue
		}
		if _, ok := seen[in]; ok {
			continue
		}
		seen[in] = struct{}{}
		out = append(out, in)
	}
	return out
}

// TargetPageIntent maps target content type and commercial signals to an
// intent deterministically.
func TargetPageIntent(target model.TargetProfile) model.Intent {
	ct := strings.ToLower(target.ContentType)
	switch {
	case containsAny(ct, "product", "category", "shop", "store") && hasPriceSignal(target.CommercialSignals):
		return model.IntentTransactionalInfoSupport
	case containsAny(ct, "comparison", "compare", "review", "listicle"):
		return model.IntentCommercialResearch
	case containsAny(ct, "faq", "help", "support", "documentation"):
		return model.IntentSupport
	default:
		return model.IntentInfoPrimary
	}
}

func hasPriceSignal(signals []string) bool {
	for _, s := range signals {
		if containsAny(strings.ToLower(s), "price", "pris", "checkout", "cart", "buy", "köp") {
			return true
		}
	}
	return false
}

// PublisherRoleIntent maps the publisher's tone class to an intent; outside
// the authority tones it derives from the allowed commerciality level.
func PublisherRoleIntent(pub model.PublisherProfile) model.Intent {
	switch pub.ToneClass {
	case model.ToneAcademic, model.ToneAuthorityPublic:
		return model.IntentInfoPrimary
	}
	switch pub.Commerciality {
	case model.CommercialityHigh:
		return model.IntentTransactional
	case model.CommercialityMedium:
		return model.IntentCommercialResearch
	default:
		return model.IntentInfoPrimary
	}
}

// Compare grades one intent against the primary SERP intent: exact match or
// a shared leading category token is aligned, a fixed compatibility pair is
// partial, anything else is off.
func Compare(a, b model.Intent) model.Alignment {
	if a == "" || b == "" {
		return model.AlignmentOff
	}
	if a == b || a.Category() == b.Category() {
		return model.AlignmentAligned
	}
	ca, cb := a.Category(), b.Category()
	if compatiblePairs[[2]string{ca, cb}] || compatiblePairs[[2]string{cb, ca}] {
		return model.AlignmentPartial
	}
	return model.AlignmentOff
}

func overall(a model.IntentAlignment) model.Alignment {
	pairs := []model.Alignment{a.AnchorVsSerp, a.TargetVsSerp, a.PublisherVsSerp}
	aligned := 0
	for _, p := range pairs {
		switch p {
		case model.AlignmentOff:
			return model.AlignmentOff
		case model.AlignmentAligned:
			aligned++
		}
	}
	if aligned == len(pairs) {
		return model.AlignmentAligned
	}
	return model.AlignmentPartial
}

// bridgeDecision implements the threshold cascade. Every non-strong,
// non-off case lands on pivot, including genuinely low-confidence SERP data;
// confidence deliberately does not adjust the decision.
func bridgeDecision(overall model.Alignment, topicOverlap float64) model.BridgeType {
	switch {
	case overall == model.AlignmentOff:
		return model.BridgeWrapper
	case overall == model.AlignmentAligned:
		return model.BridgeStrong
	case topicOverlap >= strongOverlapThreshold:
		return model.BridgeStrong
	case topicOverlap >= pivotOverlapThreshold:
		return model.BridgePivot
	default:
		return model.BridgePivot
	}
}

// collectSubtopics builds the order-preserving union of all SERP sets'
// subtopics, main query first, capped at 10.
func collectSubtopics(research model.SerpResearch) []string {
	var all []string
	all = append(all, research.Main.RequiredSubtopics...)
	for _, c := range research.Clusters {
		all = append(all, c.RequiredSubtopics...)
	}
	union := textkit.Dedupe(all)
	if len(union) > maxRequiredSubtopics {
		union = union[:maxRequiredSubtopics]
	}
	return union
}

func (e *Engine) forbiddenAngles(pub model.PublisherProfile, overall model.Alignment) []string {
	var out []string
	out = append(out, e.lex.ToneExclusions(pub.ToneClass)...)
	if overall == model.AlignmentOff && e.lex.OffAlignmentExclusion != "" {
		out = append(out, e.lex.OffAlignmentExclusion)
	}
	if pub.BrandSafetyNotes != "" {
		out = append(out, pub.BrandSafetyNotes)
	}
	return textkit.Dedupe(out)
}

// articleAngle selects the narrative template for the bridge type,
// interpolating the target's top entity or topic.
func articleAngle(bridge model.BridgeType, target model.TargetProfile) string {
	subject := "the topic"
	if len(target.Entities) > 0 {
		subject = target.Entities[0]
	} else if len(target.Topics) > 0 {
		subject = target.Topics[0]
	}

	switch bridge {
	case model.BridgeStrong:
		return fmt.Sprintf("Direct integration: cover %s head-on and let the target page extend the reader's next step.", subject)
	case model.BridgePivot:
		return fmt.Sprintf("Thematic bridge: open from the publisher's usual ground, then pivot to %s as a natural tangent.", subject)
	default:
		return fmt.Sprintf("Meta-frame: discuss the wider landscape around %s without endorsing the offering directly.", subject)
	}
}

func rationale(ext model.IntentExtension, research model.SerpResearch) string {
	return fmt.Sprintf(
		"primary SERP intent %q (confidence %s); target %q, publisher %q, anchor %q; pairwise anchor=%s target=%s publisher=%s -> overall %s; topic overlap %.2f -> bridge %s",
		ext.PrimarySerpIntent, research.Confidence,
		ext.TargetPageIntent, ext.PublisherRoleIntent, ext.AnchorIntent,
		ext.Alignment.AnchorVsSerp, ext.Alignment.TargetVsSerp, ext.Alignment.PublisherVsSerp,
		ext.Alignment.Overall, ext.TopicOverlapRatio, ext.Bridge,
	)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
