package moderation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Blocklist holds the configurable part of the local rules.
//
// Example file:
//
//	brand_words: [kick, kickstream]
//	brand_patterns: ['kickstream', 'kick\.trade', '\bkick\b']
//	body_terms: [pussy, penis, vagina, boob]
//	body_prefixes: [dick, cock, cum, anal, oral, tit, ass]
//	extra_words: [rugpull]
//	allow_words: [oral]
//
// body_terms match anywhere, body_prefixes only at the start of a word.
type Blocklist struct {
	BrandWords    []string `yaml:"brand_words"`
	BrandPatterns []string `yaml:"brand_patterns"`
	BodyTerms     []string `yaml:"body_terms"`
	BodyPrefixes  []string `yaml:"body_prefixes"`
	ExtraWords    []string `yaml:"extra_words"`
	AllowWords    []string `yaml:"allow_words"`
}

// DefaultBlocklist returns the built-in brand and body-part rules.
func DefaultBlocklist() Blocklist {
	return Blocklist{
		BrandWords:    []string{"kick", "kickstream"},
		BrandPatterns: append([]string(nil), DefaultBrandPatterns...),
		BodyTerms:     append([]string(nil), DefaultBodyTerms...),
		BodyPrefixes:  append([]string(nil), DefaultBodyPrefixes...),
	}
}

// LoadBlocklist reads a YAML blocklist file. Keys absent from the file keep
// their defaults; an explicit empty list disables them.
func LoadBlocklist(path string) (Blocklist, error) {
	bl := DefaultBlocklist()

	data, err := os.ReadFile(path)
	if err != nil {
		return bl, fmt.Errorf("read blocklist: %w", err)
	}
	if err := yaml.Unmarshal(data, &bl); err != nil {
		return bl, fmt.Errorf("parse blocklist %s: %w", path, err)
	}
	return bl, nil
}

// Words returns the lexical entries this blocklist contributes on top of
// the default dictionary.
func (b Blocklist) Words() []string {
	out := make([]string, 0, len(b.BrandWords)+len(b.ExtraWords))
	out = append(out, b.BrandWords...)
	return append(out, b.ExtraWords...)
}
