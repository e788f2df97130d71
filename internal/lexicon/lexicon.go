// Package lexicon loads the fixed rule-cascade vocabularies: per-language
// intent keyword sets, generic CTA anchors, query modifiers, tone-based
// exclusions, regulated verticals, and citation trust tiers. The data ships
// embedded so a decision never depends on files at runtime.
package lexicon

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/linkforge/internal/model"
)

//go:embed data/lexicon.yaml
var rawLexicon []byte

// LanguagePack holds the vocabularies for one language.
type LanguagePack struct {
	Intents      map[string][]string `yaml:"intents"`
	CTA          []string            `yaml:"cta"`
	Modifiers    map[string][]string `yaml:"modifiers"`
	Fallbacks    []string            `yaml:"fallbacks"`
	Superlatives []string            `yaml:"superlatives"`
}

// Vertical is a regulated content vertical with its verbatim disclaimers.
type Vertical struct {
	Name        string            `yaml:"name"`
	Keywords    []string          `yaml:"keywords"`
	Disclaimers map[string]string `yaml:"disclaimers"`
}

// TrustTiers holds host patterns per authority tier. Unmatched hosts are T4.
type TrustTiers struct {
	T1 []string `yaml:"t1"`
	T2 []string `yaml:"t2"`
	T3 []string `yaml:"t3"`
}

// Lexicon is the full embedded vocabulary set.
type Lexicon struct {
	DefaultLanguage       string                  `yaml:"default_language"`
	Languages             map[string]LanguagePack `yaml:"languages"`
	Tones                 map[string][]string     `yaml:"tones"`
	OffAlignmentExclusion string                  `yaml:"off_alignment_exclusion"`
	Verticals             []Vertical              `yaml:"verticals"`
	TrustTiers            TrustTiers              `yaml:"trust_tiers"`
	Archetypes            map[string][]string     `yaml:"archetypes"`
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the embedded lexicon, parsed once.
func Default() (*Lexicon, error) {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Parse(rawLexicon)
	})
	return defaultLex, defaultErr
}

// MustDefault is Default for composition paths where the embedded data being
// unparsable is a programming error.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// Parse decodes a lexicon from YAML.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, eris.Wrap(err, "lexicon: unmarshal")
	}
	if lex.DefaultLanguage == "" {
		lex.DefaultLanguage = "en"
	}
	if _, ok := lex.Languages[lex.DefaultLanguage]; !ok {
		return nil, eris.Errorf("lexicon: default language %q has no pack", lex.DefaultLanguage)
	}
	return &lex, nil
}

// NormalizeLanguage reduces a BCP-47 tag ("sv-SE", "en_US") to the base
// language key used by the packs. Unparsable tags map to the default.
func (l *Lexicon) NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return l.DefaultLanguage
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return l.DefaultLanguage
	}
	base, _ := parsed.Base()
	key := base.String()
	if _, ok := l.Languages[key]; !ok {
		return l.DefaultLanguage
	}
	return key
}

// Pack returns the language pack for a (possibly regional) tag, falling back
// to the default language.
func (l *Lexicon) Pack(tag string) LanguagePack {
	return l.Languages[l.NormalizeLanguage(tag)]
}

// ToneExclusions returns the forbidden angles for a tone class.
func (l *Lexicon) ToneExclusions(tone model.ToneClass) []string {
	return l.Tones[string(tone)]
}

// MatchVertical returns the first regulated vertical whose keyword appears in
// any of the given strings, or nil.
func (l *Lexicon) MatchVertical(haystacks ...string) *Vertical {
	for i := range l.Verticals {
		v := &l.Verticals[i]
		for _, kw := range v.Keywords {
			for _, h := range haystacks {
				if h != "" && strings.Contains(strings.ToLower(h), kw) {
					return v
				}
			}
		}
	}
	return nil
}

// Disclaimer returns the vertical's disclaimer for the language, falling back
// to the lexicon default language.
func (v *Vertical) Disclaimer(lang, fallback string) string {
	if d, ok := v.Disclaimers[lang]; ok {
		return d
	}
	return v.Disclaimers[fallback]
}

// TierFor assigns an authority tier (1-4) to a citation host.
func (t TrustTiers) TierFor(host string) int {
	host = strings.ToLower(host)
	for tier, patterns := range [][]string{t.T1, t.T2, t.T3} {
		for _, p := range patterns {
			if strings.Contains(host, p) {
				return tier + 1
			}
		}
	}
	return 4
}
