package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// AnchorType classifies the proposed anchor text.
type AnchorType string

const (
	AnchorExact   AnchorType = "exact"
	AnchorPartial AnchorType = "partial"
	AnchorBrand   AnchorType = "brand"
	AnchorGeneric AnchorType = "generic"
)

// AllAnchorTypes lists every valid anchor type.
func AllAnchorTypes() []AnchorType {
	return []AnchorType{AnchorExact, AnchorPartial, AnchorBrand, AnchorGeneric}
}

// ToneClass buckets a publisher's editorial voice.
type ToneClass string

const (
	ToneAcademic        ToneClass = "academic"
	ToneAuthorityPublic ToneClass = "authority_public"
	ToneJournalistic    ToneClass = "journalistic"
	ToneCasual          ToneClass = "casual"
	TonePromotional     ToneClass = "promotional"
)

// CommercialityLevel is the degree of commercial content a publisher allows.
type CommercialityLevel string

const (
	CommercialityNone   CommercialityLevel = "none"
	CommercialityLow    CommercialityLevel = "low"
	CommercialityMedium CommercialityLevel = "medium"
	CommercialityHigh   CommercialityLevel = "high"
)

// JobInput captures the three free-form inputs plus optional request knobs.
type JobInput struct {
	PublisherDomain string     `json:"publisher_domain"`
	TargetURL       string     `json:"target_url"`
	AnchorText      string     `json:"anchor_text"`
	AnchorTypeHint  AnchorType `json:"anchor_type_hint,omitempty"`
	MinWordCount    int        `json:"min_word_count,omitempty"`
	Language        string     `json:"language,omitempty"`
}

// PageProfile is the structured page description returned by the profiler
// collaborator. Scraping and text extraction live behind that contract.
type PageProfile struct {
	URL               string   `json:"url"`
	HTTPStatus        int      `json:"http_status"`
	Title             string   `json:"title"`
	Headings          []string `json:"headings,omitempty"`
	Entities          []string `json:"entities,omitempty"`
	Topics            []string `json:"topics,omitempty"`
	Language          string   `json:"language,omitempty"`
	ContentType       string   `json:"content_type,omitempty"`
	CommercialSignals []string `json:"commercial_signals,omitempty"`
	ToneClass         string   `json:"tone_class,omitempty"`
	Commerciality     string   `json:"commerciality,omitempty"`
	BrandSafetyNotes  string   `json:"brand_safety_notes,omitempty"`
	CandidateQueries  []string `json:"candidate_queries,omitempty"`
}

// PublisherProfile is the publisher-side slice of a JobSpecification.
type PublisherProfile struct {
	Domain           string             `json:"domain"`
	Title            string             `json:"title,omitempty"`
	ToneClass        ToneClass          `json:"tone_class"`
	Commerciality    CommercialityLevel `json:"commerciality"`
	Topics           []string           `json:"topics,omitempty"`
	Language         string             `json:"language,omitempty"`
	BrandSafetyNotes string             `json:"brand_safety_notes,omitempty"`
}

// TargetProfile is the target-page slice of a JobSpecification.
type TargetProfile struct {
	URL               string   `json:"url"`
	Title             string   `json:"title,omitempty"`
	Headings          []string `json:"headings,omitempty"`
	Entities          []string `json:"entities,omitempty"`
	Topics            []string `json:"topics,omitempty"`
	Language          string   `json:"language,omitempty"`
	ContentType       string   `json:"content_type,omitempty"`
	CommercialSignals []string `json:"commercial_signals,omitempty"`
	CandidateQueries  []string `json:"candidate_queries,omitempty"`
}

// AnchorProfile is the classified anchor text.
type AnchorProfile struct {
	Text       string     `json:"text"`
	Type       AnchorType `json:"type"`
	IntentHint Intent     `json:"intent_hint"`
}

// GenerationConstraints are the writer-facing directives assembled from the
// alignment decision.
type GenerationConstraints struct {
	MinWordCount       int        `json:"min_word_count"`
	Language           string     `json:"language"`
	Bridge             BridgeType `json:"bridge"`
	ArticleAngle       string     `json:"article_angle"`
	RequiredSubtopics  []string   `json:"required_subtopics,omitempty"`
	ForbiddenAngles    []string   `json:"forbidden_angles,omitempty"`
	LSITerms           []string   `json:"lsi_terms,omitempty"`
	RequiredDisclaimer string     `json:"required_disclaimer,omitempty"`
	RequireSignoff     bool       `json:"require_signoff,omitempty"`
}

// JobSpecification is the validated, immutable job description produced once
// by the assembler. Extensions may be attached downstream but the assembled
// fields never mutate.
type JobSpecification struct {
	JobID       string                `json:"job_id"`
	Input       JobInput              `json:"input"`
	Publisher   PublisherProfile      `json:"publisher"`
	Target      TargetProfile         `json:"target"`
	Anchor      AnchorProfile         `json:"anchor"`
	Serp        SerpResearch          `json:"serp"`
	Intent      IntentExtension       `json:"intent"`
	Constraints GenerationConstraints `json:"constraints"`
}

// Validate checks the structural schema of an assembled specification: all
// required top-level sections must be present. A failure here is a structured
// assembly error, never silently patched.
func (j *JobSpecification) Validate() error {
	var missing []string
	if j.JobID == "" {
		missing = append(missing, "job_id")
	}
	if j.Input.PublisherDomain == "" || j.Input.TargetURL == "" || j.Input.AnchorText == "" {
		missing = append(missing, "input")
	}
	if j.Publisher.Domain == "" {
		missing = append(missing, "publisher")
	}
	if j.Target.URL == "" {
		missing = append(missing, "target")
	}
	if j.Anchor.Text == "" || j.Anchor.Type == "" {
		missing = append(missing, "anchor")
	}
	if j.Serp.MainQuery == "" {
		missing = append(missing, "serp")
	}
	if j.Intent.Bridge == "" || j.Intent.Alignment.Overall == "" {
		missing = append(missing, "intent")
	}
	if j.Constraints.Bridge == "" {
		missing = append(missing, "constraints")
	}
	if len(missing) > 0 {
		return eris.Errorf("job: specification missing required sections: %s", strings.Join(missing, ", "))
	}
	return nil
}
