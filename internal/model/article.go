package model

// LinksExtension is the writer's self-declaration of how the anchor link was
// placed. It is untrusted input: the declared bridge type is validated against
// the specification's recommendation, never taken at face value.
type LinksExtension struct {
	BridgeUsed BridgeType `json:"bridge_used"`
	AnchorText string     `json:"anchor_text"`
	TargetURL  string     `json:"target_url"`
}

// Extensions is the structured metadata a writer returns alongside the
// article text.
type Extensions struct {
	Links  *LinksExtension  `json:"links,omitempty"`
	Intent *IntentExtension `json:"intent,omitempty"`
}

// GeneratedArticle is the writer collaborator's output.
type GeneratedArticle struct {
	Text       string     `json:"text"`
	Extensions Extensions `json:"extensions"`
	WordCount  int        `json:"word_count,omitempty"`
	Model      string     `json:"model,omitempty"`
}
