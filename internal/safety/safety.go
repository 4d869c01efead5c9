// Package safety provides sensitive-topic detection and PII redaction for
// composed answers.
package safety

import (
	"regexp"
	"sort"
	"strings"
)

// Redaction placeholders. Redaction is idempotent: placeholders themselves
// never match the detection patterns.
const (
	RedactedEmail = "[REDACTED_EMAIL]"
	RedactedCard  = "[REDACTED_CARD]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// cardPattern over-matches on purpose; candidates are confirmed with a
	// Luhn check so ordinary numeric literals stay untouched.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
)

// Filter detects sensitive topics and redacts PII.
type Filter struct {
	categories map[string][]string
}

// NewFilter creates a Filter with the given category table
// (category -> trigger keywords, matched case-insensitively).
func NewFilter(categories map[string][]string) *Filter {
	return &Filter{categories: categories}
}

// DetectTopics returns the sorted category names triggered by the text.
func (f *Filter) DetectTopics(text string) []string {
	lowered := strings.ToLower(text)
	var flags []string
	for category, keywords := range f.categories {
		for _, kw := range keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				flags = append(flags, category)
				break
			}
		}
	}
	sort.Strings(flags)
	return flags
}

// RedactPII masks email addresses and Luhn-valid card-like digit sequences.
func RedactPII(text string) string {
	text = emailPattern.ReplaceAllString(text, RedactedEmail)
	text = cardPattern.ReplaceAllStringFunc(text, func(match string) string {
		if luhnValid(match) {
			return RedactedCard
		}
		return match
	})
	return text
}

// luhnValid reports whether the digits in s (ignoring spaces and dashes)
// form a Luhn-checksummed number of plausible card length.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 16 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
