package model

import "strings"

// Intent is a search/content purpose drawn from a fixed vocabulary.
type Intent string

const (
	IntentInfoPrimary              Intent = "info_primary"
	IntentCommercialResearch       Intent = "commercial_research"
	IntentTransactional            Intent = "transactional"
	IntentTransactionalInfoSupport Intent = "transactional_with_info_support"
	IntentNavigationalBrand        Intent = "navigational_brand"
	IntentSupport                  Intent = "support"
	IntentLocal                    Intent = "local"
	IntentMixed                    Intent = "mixed"
)

// AllIntents lists every valid intent value.
func AllIntents() []Intent {
	return []Intent{
		IntentInfoPrimary,
		IntentCommercialResearch,
		IntentTransactional,
		IntentTransactionalInfoSupport,
		IntentNavigationalBrand,
		IntentSupport,
		IntentLocal,
		IntentMixed,
	}
}

// Category returns the leading category token of the intent, e.g.
// "transactional" for both "transactional" and "transactional_with_info_support".
func (i Intent) Category() string {
	s := string(i)
	if idx := strings.Index(s, "_"); idx > 0 {
		return s[:idx]
	}
	return s
}

// Alignment grades how well two intent signals agree.
type Alignment string

const (
	AlignmentAligned Alignment = "aligned"
	AlignmentPartial Alignment = "partial"
	AlignmentOff     Alignment = "off"
)

// BridgeType is the narrative strategy linking publisher content to the target.
type BridgeType string

const (
	BridgeStrong  BridgeType = "strong"  // direct integration
	BridgePivot   BridgeType = "pivot"   // thematic bridge
	BridgeWrapper BridgeType = "wrapper" // meta-frame
)

// IntentAlignment is the pairwise alignment matrix between the anchor, target,
// and publisher signals and the primary SERP intent. It is a pure function of
// its inputs and is recomputed, never edited.
type IntentAlignment struct {
	AnchorVsSerp    Alignment `json:"anchor_vs_serp"`
	TargetVsSerp    Alignment `json:"target_vs_serp"`
	PublisherVsSerp Alignment `json:"publisher_vs_serp"`
	Overall         Alignment `json:"overall"`
}

// IntentExtension is the alignment decision attached to a JobSpecification
// and optionally echoed back (refined) by the writer.
type IntentExtension struct {
	PrimarySerpIntent   Intent          `json:"primary_serp_intent"`
	SecondarySerpIntent []Intent        `json:"secondary_serp_intents,omitempty"`
	TargetPageIntent    Intent          `json:"target_page_intent"`
	PublisherRoleIntent Intent          `json:"publisher_role_intent"`
	AnchorIntent        Intent          `json:"anchor_intent"`
	Alignment           IntentAlignment `json:"alignment"`
	Bridge              BridgeType      `json:"bridge"`
	TopicOverlapRatio   float64         `json:"topic_overlap_ratio"`
	RequiredSubtopics   []string        `json:"required_subtopics,omitempty"`
	ForbiddenAngles     []string        `json:"forbidden_angles,omitempty"`
	ArticleAngle        string          `json:"article_angle"`
	Rationale           string          `json:"rationale"`
}
