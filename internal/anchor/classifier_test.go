package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
)

func TestClassify_GenericCTA(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	got := c.Classify(Input{Text: "klicka här", Language: "sv"})
	assert.Equal(t, model.AnchorGeneric, got.Type)
	assert.Equal(t, model.IntentInfoPrimary, got.IntentHint)

	got = c.Classify(Input{Text: "read more", Language: "en"})
	assert.Equal(t, model.AnchorGeneric, got.Type)
	assert.Equal(t, model.IntentInfoPrimary, got.IntentHint)
}

func TestClassify_HintShortCircuits(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	got := c.Classify(Input{Text: "klicka här", Hint: model.AnchorBrand, Language: "sv"})
	assert.Equal(t, model.AnchorBrand, got.Type)
	assert.Equal(t, model.IntentNavigationalBrand, got.IntentHint)
}

func TestClassify_KnownEntityIsBrand(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	got := c.Classify(Input{
		Text:           "Acme widgets",
		TargetEntities: []string{"Acme"},
		Language:       "en",
	})
	assert.Equal(t, model.AnchorBrand, got.Type)
	assert.Equal(t, model.IntentNavigationalBrand, got.IntentHint)
}

func TestClassify_TitleOverlap(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	// Full overlap with the target title reads as exact match.
	got := c.Classify(Input{
		Text:        "best running shoes",
		TargetTitle: "Best Running Shoes 2026",
		Language:    "en",
	})
	assert.Equal(t, model.AnchorExact, got.Type)
	assert.Equal(t, model.IntentCommercialResearch, got.IntentHint)

	// Partial overlap reads as partial match.
	got = c.Classify(Input{
		Text:        "köp billiga elcyklar",
		TargetTitle: "Elcyklar köp online",
		Language:    "sv",
	})
	assert.Equal(t, model.AnchorPartial, got.Type)
	assert.Equal(t, model.IntentTransactional, got.IntentHint)
}

func TestClassify_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	// Short anchors with no other signal default to generic.
	got := c.Classify(Input{Text: "blue widgets", Language: "en"})
	assert.Equal(t, model.AnchorGeneric, got.Type)

	// Longer phrases default to partial.
	got = c.Classify(Input{Text: "how to choose a mattress for side sleepers", Language: "en"})
	assert.Equal(t, model.AnchorPartial, got.Type)
	assert.Equal(t, model.IntentInfoPrimary, got.IntentHint)
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()
	c := NewClassifier(lexicon.MustDefault())

	in := Input{Text: "jämför bolån och räntor", TargetTitle: "Bolån", Language: "sv"}
	assert.Equal(t, c.Classify(in), c.Classify(in))
}
