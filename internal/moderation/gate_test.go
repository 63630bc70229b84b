package moderation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGate_LocalSafe(t *testing.T) {
	g := DefaultLocalGate()

	tests := []struct {
		name   string
		input  string
		safe   bool
		reason string
	}{
		{"empty", "", true, ""},
		{"only punctuation", "!!!", true, ""},
		{"clean", "Bonk Inu BONK", true, ""},
		{"lexical hit", "Sexy Doge", false, ReasonLexical},
		{"obfuscated lexical", "#porn#", false, ReasonLexical},
		{"dotted letters pass", "p.o.r.n", true, ""},
		{"pattern hit", "SuperFuckCoin", false, ReasonPattern},
		{"brand word", "Kick Token", false, ReasonLexical},
		{"brand pattern after normalization", "kickstreamer", false, ReasonPattern},
		{"compound body term", "DickCoin", false, ReasonPattern},
		{"compound mixed case", "CumRocket", false, ReasonPattern},
		{"prefix term mid word stays clean", "Classic Moral Token", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, g.LocalSafe(tt.input))
			reason, _ := g.Explain(tt.input)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestLocalGate_LexicalMutation(t *testing.T) {
	g := DefaultLocalGate()
	require.True(t, g.LocalSafe("rugpull finance"))

	g.Lexical().AddWords("rugpull")
	assert.False(t, g.LocalSafe("rugpull finance"))
}

func TestNewLocalGateFromBlocklist(t *testing.T) {
	bl := Blocklist{
		BodyPrefixes: DefaultBodyPrefixes,
		ExtraWords:   []string{"scamcoin"},
		AllowWords:   []string{"oral"},
	}

	g, err := NewLocalGateFromBlocklist(bl)
	require.NoError(t, err)

	assert.False(t, g.LocalSafe("the scamcoin"))
	assert.True(t, g.LocalSafe("kick token"), "brand rules disabled when blocklist has none")

	// allow list only lifts the lexical entry, the prefix pattern still fires
	reason, term := g.Explain("oral history")
	assert.Equal(t, ReasonPattern, reason)
	assert.Equal(t, "body_part", term)
}

func TestLoadBlocklist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocklist.yaml")
	content := `
brand_words: [pumpbrand]
brand_patterns:
  - 'pump\.brand'
extra_words: [rugpull]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	bl, err := LoadBlocklist(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"pumpbrand"}, bl.BrandWords)
	assert.Equal(t, []string{`pump\.brand`}, bl.BrandPatterns)
	assert.Equal(t, []string{"pumpbrand", "rugpull"}, bl.Words())

	g, err := NewLocalGateFromBlocklist(bl)
	require.NoError(t, err)
	assert.True(t, g.LocalSafe("kick"))
	assert.False(t, g.LocalSafe("pumpbrand"))
	assert.False(t, g.LocalSafe("rugpull"))
}

func TestLoadBlocklist_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extra_words: [scam]\n"), 0o644))

	bl, err := LoadBlocklist(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBlocklist().BrandWords, bl.BrandWords)
	assert.Equal(t, DefaultBrandPatterns, bl.BrandPatterns)
	assert.Equal(t, DefaultBodyPrefixes, bl.BodyPrefixes)
}

func TestLoadBlocklist_BodyRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.yaml")
	content := "body_terms: []\nbody_prefixes: [dick]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	bl, err := LoadBlocklist(path)
	require.NoError(t, err)
	assert.Empty(t, bl.BodyTerms)
	assert.Equal(t, []string{"dick"}, bl.BodyPrefixes)

	g, err := NewLocalGateFromBlocklist(bl)
	require.NoError(t, err)
	assert.False(t, g.LocalSafe("dickcoin"))
	assert.True(t, g.LocalSafe("asscoin"), "prefix list replaced by the file")
}

func TestLoadBlocklist_Errors(t *testing.T) {
	_, err := LoadBlocklist(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brand_words: [unclosed\n"), 0o644))
	_, err = LoadBlocklist(path)
	assert.Error(t, err)
}
