// Package textkit holds the small text-processing helpers shared by the
// anchor classifier, query selector, and quality checks.
package textkit

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

// Tokenize lowercases the text and splits it into word tokens. Punctuation
// is dropped; digits are kept so model numbers survive.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// OverlapRatio returns |a ∩ b| / |a| over lowercase token sets. An empty
// first set yields 0.
func OverlapRatio(a, b []string) float64 {
	if len(a) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[strings.ToLower(t)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	matched := 0
	for _, t := range a {
		lt := strings.ToLower(t)
		if _, dup := seen[lt]; dup {
			continue
		}
		seen[lt] = struct{}{}
		if _, ok := set[lt]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}

// ContainsFold reports whether s contains substr, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// Sentences splits text into sentences. Markdown line breaks also terminate
// a sentence so headings and list items count as their own units.
func Sentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marked := sentenceEnd.ReplaceAllString(line, "$1\x00")
		for _, s := range strings.Split(marked, "\x00") {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// MarkdownLink matches an inline markdown link and captures text and URL.
var MarkdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// FindLink returns the first markdown link whose URL contains target.
// The returned index is the byte offset in text, or -1 if absent.
func FindLink(text, target string) (linkText string, offset int) {
	for _, m := range MarkdownLink.FindAllStringSubmatchIndex(text, -1) {
		url := text[m[4]:m[5]]
		if strings.Contains(url, target) || strings.Contains(target, url) {
			return text[m[2]:m[3]], m[0]
		}
	}
	return "", -1
}

// HeadingLevel returns the markdown heading level of a line (1 for "#",
// 2 for "##", ...) or 0 when the line is not a heading.
func HeadingLevel(line string) int {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(trimmed) || trimmed[n] != ' ' {
		return 0
	}
	return n
}

// Hash returns the hex SHA-256 of the payload, used for replay detection
// and content deduplication.
func Hash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Dedupe returns the slice with duplicates removed, preserving first-seen
// order. Comparison is case-insensitive.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
