package moderation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexicalFilter_IsProfane(t *testing.T) {
	f := NewLexicalFilter(DefaultWords()...)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"extension word", "sexy dog coin", true},
		{"base word", "this is shit", true},
		{"case folded", "PORN", true},
		{"accent folded", "séx token", true},
		{"punctuation split", "moon,cum,rocket", true},
		{"phrase", "please jerk off", true},
		{"substring not a token", "classic assessment", false},
		{"clean", "bonk inu", false},
		{"empty", "", false},
		{"split phrase", "jerk the off", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsProfane(tt.input); got != tt.want {
				t.Errorf("IsProfane(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLexicalFilter_Find(t *testing.T) {
	f := NewLexicalFilter("rug", "pull the rug")

	term, ok := f.Find("they will pull the rug")
	assert.True(t, ok)
	assert.Equal(t, "rug", term)

	f.RemoveWords("rug")
	term, ok = f.Find("they will pull the rug")
	assert.True(t, ok)
	assert.Equal(t, "pull the rug", term)
}

func TestLexicalFilter_AddRemove(t *testing.T) {
	f := NewLexicalFilter()
	assert.False(t, f.IsProfane("rugpull"))

	f.AddWords("RugPull", "  ")
	assert.True(t, f.IsProfane("a rugpull coin"))
	assert.Equal(t, []string{"rugpull"}, f.Words())

	f.RemoveWords("rugpull", "unknown")
	assert.False(t, f.IsProfane("a rugpull coin"))
	assert.Empty(t, f.Words())
}

func TestLexicalFilter_Concurrent(t *testing.T) {
	f := NewLexicalFilter(DefaultWords()...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.IsProfane("some porn here")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.AddWords("scam")
				f.RemoveWords("scam")
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.IsProfane("some porn here"))
}
