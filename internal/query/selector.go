// Package query derives the main and cluster search queries for a job from
// the target profile and the classified anchor.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/linkforge/internal/lexicon"
	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/textkit"
)

const (
	minClusterQueries = 2
	maxClusterQueries = 4
)

// Selection is the chosen query set.
type Selection struct {
	MainQuery      string   `json:"main_query"`
	ClusterQueries []string `json:"cluster_queries"`
	Language       string   `json:"language"`
}

// Selector builds query selections from target and anchor data.
type Selector struct {
	lex *lexicon.Lexicon
}

// NewSelector creates a Selector over the given lexicon.
func NewSelector(lex *lexicon.Lexicon) *Selector {
	return &Selector{lex: lex}
}

// Select produces one main query and 2-4 cluster queries. The main query
// priority is: first pre-supplied candidate, top entity + top topic, the
// cleaned page title, then a literal fallback.
func (s *Selector) Select(target model.TargetProfile, anchor model.AnchorProfile, requestLanguage string) Selection {
	lang := s.lex.NormalizeLanguage(firstNonEmpty(requestLanguage, target.Language))
	main := s.mainQuery(target, anchor)
	return Selection{
		MainQuery:      main,
		ClusterQueries: s.clusterQueries(main, target, anchor, lang),
		Language:       lang,
	}
}

func (s *Selector) mainQuery(target model.TargetProfile, anchor model.AnchorProfile) string {
	for _, q := range target.CandidateQueries {
		if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	if len(target.Entities) > 0 && len(target.Topics) > 0 {
		return strings.TrimSpace(target.Entities[0] + " " + target.Topics[0])
	}
	if title := cleanTitle(target.Title); title != "" {
		return title
	}
	if text := strings.TrimSpace(anchor.Text); text != "" {
		return text
	}
	return hostOf(target.URL)
}

// cleanTitle strips brand suffixes after "|", " - ", or " – ".
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{"|", " - ", " – "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

func (s *Selector) clusterQueries(main string, target model.TargetProfile, anchor model.AnchorProfile, lang string) []string {
	pack := s.lex.Pack(lang)
	modifiers := pack.Modifiers[string(anchor.IntentHint)]
	if len(modifiers) == 0 {
		modifiers = pack.Modifiers[string(model.IntentInfoPrimary)]
	}

	var seeds []string
	seeds = append(seeds, target.Entities...)
	seeds = append(seeds, target.Topics...)
	seeds = textkit.Dedupe(seeds)

	var candidates []string
	for i, seed := range seeds {
		if i >= maxClusterQueries {
			break
		}
		mod := modifiers[i%max(len(modifiers), 1)]
		candidates = append(candidates, strings.TrimSpace(seed+" "+mod))
	}

	lowerMain := strings.ToLower(main)
	var out []string
	for _, c := range textkit.Dedupe(candidates) {
		if strings.ToLower(c) == lowerMain {
			continue
		}
		out = append(out, c)
		if len(out) == maxClusterQueries {
			return out
		}
	}

	// Pad with generic fallback variants until the minimum is reached.
	for _, pattern := range pack.Fallbacks {
		if len(out) >= minClusterQueries {
			break
		}
		q := fmt.Sprintf(pattern, main)
		if strings.EqualFold(q, main) || containsFoldSlice(out, q) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func containsFoldSlice(items []string, q string) bool {
	for _, it := range items {
		if strings.EqualFold(it, q) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
