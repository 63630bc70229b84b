package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternFilter_MatchesAny(t *testing.T) {
	f, err := NewPatternFilter(DefaultBlocklist())
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  bool
		rule  string
	}{
		{"embedded fuck", "motherfuckercoin", true, "obfuscated_fuck"},
		{"spaced fuk", "f u k", true, "obfuscated_fuk"},
		{"embedded sex", "sexcoin", true, "explicit_sex"},
		{"embedded porn", "pornstar", true, "explicit_porn"},
		{"onlyfans", "myonlyfansclub", true, "explicit_onlyfans"},
		{"long body term substring", "boobies", true, "body_part"},
		{"short body term whole word", "big ass coin", true, "body_part"},
		{"compound dick", "dickcoin", true, "body_part"},
		{"compound ass", "asscoin", true, "body_part"},
		{"compound cum", "cumrocket", true, "body_part"},
		{"compound tit", "titcoin", true, "body_part"},
		{"compound cock", "cocksure inu", true, "body_part"},
		{"prefix term mid word", "classic glass", false, ""},
		{"oral mid word", "moral coral", false, ""},
		{"kickstream", "kickstreamer", true, "brand_kickstream"},
		{"kick trade", "kick.trade", true, "brand_kick\\.trade"},
		{"kick word", "just kick it", true, "brand_\\bkick\\b"},
		{"kick inside word", "kickoff", false, ""},
		{"clean", "dogwifhat", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.MatchesAny(tt.input))
			rule, ok := f.Match(tt.input)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestPatternFilter_NoBrand(t *testing.T) {
	f, err := NewPatternFilter(Blocklist{})
	require.NoError(t, err)

	assert.Equal(t, len(defaultPatterns), f.Len())
	assert.False(t, f.MatchesAny("kick"))
	assert.False(t, f.MatchesAny("dickcoin"))
	assert.True(t, f.MatchesAny("nsfw"))
}

func TestPatternFilter_BodyRulesFromBlocklist(t *testing.T) {
	f, err := NewPatternFilter(Blocklist{
		BodyTerms:    []string{"boob"},
		BodyPrefixes: []string{"tit"},
	})
	require.NoError(t, err)

	assert.Equal(t, len(defaultPatterns)+1, f.Len())
	assert.True(t, f.MatchesAny("megaboobs"))
	assert.True(t, f.MatchesAny("titcoin"))
	assert.False(t, f.MatchesAny("petit"))
	assert.False(t, f.MatchesAny("asscoin"))
}

func TestPatternFilter_InvalidBrand(t *testing.T) {
	_, err := NewPatternFilter(Blocklist{BrandPatterns: []string{"("}})
	assert.Error(t, err)
}
