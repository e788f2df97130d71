package model

// DataConfidence grades how much weight SERP-derived signals deserve.
type DataConfidence string

const (
	ConfidenceHigh   DataConfidence = "high"
	ConfidenceMedium DataConfidence = "medium"
	ConfidenceLow    DataConfidence = "low"
)

// SerpResult is one ranked result returned by the SERP provider.
type SerpResult struct {
	Rank    int    `json:"rank"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// QueryAnalysis is the derived view of one query's result set.
type QueryAnalysis struct {
	Query             string         `json:"query"`
	Results           []SerpResult   `json:"results,omitempty"`
	DominantIntent    Intent         `json:"dominant_intent"`
	SecondaryIntents  []Intent       `json:"secondary_intents,omitempty"`
	PageArchetypes    []string       `json:"page_archetypes,omitempty"`
	RequiredSubtopics []string       `json:"required_subtopics,omitempty"`
	Confidence        DataConfidence `json:"confidence"`
	FromCache         bool           `json:"from_cache,omitempty"`
}

// SerpResearch bundles the analyses for the main and cluster queries. The
// main query's set is the authoritative primary SERP intent; cluster sets
// contribute secondary intents only.
type SerpResearch struct {
	MainQuery      string          `json:"main_query"`
	ClusterQueries []string        `json:"cluster_queries"`
	Language       string          `json:"language"`
	Location       string          `json:"location,omitempty"`
	Main           QueryAnalysis   `json:"main"`
	Clusters       []QueryAnalysis `json:"clusters,omitempty"`
	Confidence     DataConfidence  `json:"confidence"`
}
