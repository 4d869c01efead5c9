package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_.]+`)

// ExtractTerms tokenizes a question and returns identifier-shaped tokens
// plus matched topic keywords, deduplicated in first-seen order. An empty
// result is a valid terminal state, not an error.
func ExtractTerms(question string, topics map[string][]string) []Term {
	seen := map[string]bool{}
	var terms []Term

	for _, tok := range tokenPattern.FindAllString(question, -1) {
		tok = strings.Trim(tok, ".")
		if tok == "" || !identifierShaped(tok) {
			continue
		}
		key := strings.ToLower(tok)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, Term{Text: tok, Kind: TermIdentifier})
	}

	lowered := strings.ToLower(question)
	for _, topic := range sortedTopicNames(topics) {
		for _, kw := range topics[topic] {
			kw = strings.ToLower(kw)
			if kw == "" || seen[kw] || !strings.Contains(lowered, kw) {
				continue
			}
			seen[kw] = true
			terms = append(terms, Term{Text: kw, Kind: TermTopic})
		}
	}
	return terms
}

// identifierShaped reports whether a token looks like code: underscores,
// dotted paths, or camel case. Camel case requires an uppercase letter after
// the first rune so capitalized prose words do not qualify.
func identifierShaped(tok string) bool {
	if strings.ContainsAny(tok, "_.") {
		return true
	}
	hasLower := false
	innerUpper := false
	for i, r := range tok {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r) && i > 0:
			innerUpper = true
		}
	}
	return hasLower && innerUpper
}

func sortedTopicNames(topics map[string][]string) []string {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// termTexts flattens terms for reporting.
func termTexts(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Text
	}
	return out
}
