package moderation

import (
	"log"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LexicalFilter flags text containing a blocked word as a whole token.
// Multi-word entries match a consecutive run of tokens.
type LexicalFilter struct {
	mu      sync.RWMutex
	words   map[string]struct{}
	phrases map[string][]string
}

// NewLexicalFilter creates a filter seeded with words.
func NewLexicalFilter(words ...string) *LexicalFilter {
	f := &LexicalFilter{
		words:   make(map[string]struct{}),
		phrases: make(map[string][]string),
	}
	f.AddWords(words...)
	return f
}

// AddWords adds entries to the blocked set.
func (f *LexicalFilter) AddWords(words ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range words {
		toks := tokenize(w)
		switch len(toks) {
		case 0:
			continue
		case 1:
			f.words[toks[0]] = struct{}{}
		default:
			f.phrases[strings.Join(toks, " ")] = toks
		}
	}
}

// RemoveWords removes entries from the blocked set. Unknown entries are ignored.
func (f *LexicalFilter) RemoveWords(words ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range words {
		key := strings.Join(tokenize(w), " ")
		delete(f.words, key)
		delete(f.phrases, key)
	}
}

// Words returns the blocked entries in sorted order.
func (f *LexicalFilter) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.words)+len(f.phrases))
	for w := range f.words {
		out = append(out, w)
	}
	for p := range f.phrases {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsProfane reports whether text contains a blocked entry.
func (f *LexicalFilter) IsProfane(text string) bool {
	_, ok := f.Find(text)
	return ok
}

// Find returns the first blocked entry found in text.
func (f *LexicalFilter) Find(text string) (string, bool) {
	toks := tokenize(text)
	if len(toks) == 0 {
		return "", false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, t := range toks {
		if _, ok := f.words[t]; ok {
			return t, true
		}
	}

	for key, phrase := range f.phrases {
		if containsRun(toks, phrase) {
			return key, true
		}
	}
	return "", false
}

func containsRun(toks, run []string) bool {
	for i := 0; i+len(run) <= len(toks); i++ {
		match := true
		for j := range run {
			if toks[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitToken(c rune) bool {
	return !unicode.IsLetter(c) && !unicode.IsNumber(c)
}

// tokenize lower-cases text, strips combining marks and splits it on
// anything that is not a letter or digit.
func tokenize(text string) []string {
	// transformers carry state, so the chain is built per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := strings.ToLower(text)
	folded, _, err := transform.String(fold, lower)
	if err != nil {
		log.Printf("[moderation] unicode fold: %v", err)
		folded = lower
	}
	return strings.FieldsFunc(folded, splitToken)
}
