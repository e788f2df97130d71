package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJob() *JobSpecification {
	return &JobSpecification{
		JobID: "11111111-2222-3333-4444-555555555555",
		Input: JobInput{
			PublisherDomain: "blog.example.com",
			TargetURL:       "https://acme.com/chairs",
			AnchorText:      "ergonomic chairs",
		},
		Publisher: PublisherProfile{Domain: "blog.example.com", ToneClass: ToneJournalistic, Commerciality: CommercialityLow},
		Target:    TargetProfile{URL: "https://acme.com/chairs"},
		Anchor:    AnchorProfile{Text: "ergonomic chairs", Type: AnchorPartial, IntentHint: IntentCommercialResearch},
		Serp:      SerpResearch{MainQuery: "ergonomic chairs"},
		Intent: IntentExtension{
			Bridge:    BridgeStrong,
			Alignment: IntentAlignment{Overall: AlignmentAligned},
		},
		Constraints: GenerationConstraints{MinWordCount: 800, Language: "en", Bridge: BridgeStrong},
	}
}

func TestJobValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validJob().Validate())
}

func TestJobValidate_MissingSections(t *testing.T) {
	t.Parallel()

	job := validJob()
	job.Serp.MainQuery = ""
	job.Intent.Bridge = ""

	err := job.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serp")
	assert.Contains(t, err.Error(), "intent")
	assert.NotContains(t, err.Error(), "publisher")
}
