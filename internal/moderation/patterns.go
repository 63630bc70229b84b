package moderation

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a named, compiled rule of the pattern filter.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// defaultPatterns are the fixed, ordered content rules. The body_part rule
// follows them and is built from the blocklist.
var defaultPatterns = []Pattern{
	{"obfuscated_fuck", regexp.MustCompile(`(?i)fuck`)},
	{"obfuscated_fuk", regexp.MustCompile(`(?i)f\W?u\W?k`)},
	{"explicit_sex", regexp.MustCompile(`(?i)sex`)},
	{"explicit_porn", regexp.MustCompile(`(?i)porn`)},
	{"explicit_xxx", regexp.MustCompile(`(?i)xxx`)},
	{"explicit_nsfw", regexp.MustCompile(`(?i)nsfw`)},
	{"explicit_nude", regexp.MustCompile(`(?i)nude`)},
	{"explicit_onlyfans", regexp.MustCompile(`(?i)onlyfans`)},
}

// DefaultBodyTerms match anywhere in the text.
var DefaultBodyTerms = []string{"pussy", "penis", "vagina", "boob"}

// DefaultBodyPrefixes match at the start of a word, so "dickcoin" and
// "cumrocket" fire while "class" and "moral" do not.
var DefaultBodyPrefixes = []string{"dick", "cock", "cum", "anal", "oral", "tit", "ass"}

// DefaultBrandPatterns are the platform-abuse rules used when no blocklist
// file overrides them.
var DefaultBrandPatterns = []string{
	`kickstream`,
	`kick\.trade`,
	`\bkick\b`,
}

// PatternFilter matches text against an ordered list of regular expressions.
// It is immutable after construction.
type PatternFilter struct {
	patterns []Pattern
}

// NewPatternFilter builds a filter from the fixed content rules, the body_part
// rule from bl's body terms and prefixes, then bl's brand expressions.
// Everything is matched case-insensitively.
func NewPatternFilter(bl Blocklist) (*PatternFilter, error) {
	patterns := make([]Pattern, 0, len(defaultPatterns)+1+len(bl.BrandPatterns))
	patterns = append(patterns, defaultPatterns...)

	if body := bodyPattern(bl.BodyTerms, bl.BodyPrefixes); body != nil {
		patterns = append(patterns, Pattern{Name: "body_part", Re: body})
	}

	for i, expr := range bl.BrandPatterns {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("compile brand pattern %d %q: %w", i, expr, err)
		}
		patterns = append(patterns, Pattern{Name: "brand_" + expr, Re: re})
	}

	return &PatternFilter{patterns: patterns}, nil
}

// bodyPattern compiles terms as substrings and prefixes as word starts.
// It returns nil when both are empty.
func bodyPattern(terms, prefixes []string) *regexp.Regexp {
	var alts []string
	for _, t := range terms {
		if t != "" {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	for _, p := range prefixes {
		if p != "" {
			alts = append(alts, `\b`+regexp.QuoteMeta(p))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)`)
}

// MatchesAny reports whether any pattern matches text.
func (f *PatternFilter) MatchesAny(text string) bool {
	_, ok := f.Match(text)
	return ok
}

// Match returns the name of the first matching pattern.
func (f *PatternFilter) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, p := range f.patterns {
		if p.Re.MatchString(text) {
			return p.Name, true
		}
	}
	return "", false
}

// Len returns the number of rules.
func (f *PatternFilter) Len() int {
	return len(f.patterns)
}
