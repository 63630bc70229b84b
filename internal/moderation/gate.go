package moderation

// Rejection reasons reported by LocalGate.Explain.
const (
	ReasonLexical = "lexical"
	ReasonPattern = "pattern"
)

// LocalGate combines normalization with the lexical and pattern filters into
// a synchronous verdict. It performs no I/O.
type LocalGate struct {
	lexical  *LexicalFilter
	patterns *PatternFilter
}

// NewLocalGate creates a gate from explicit filters.
func NewLocalGate(lexical *LexicalFilter, patterns *PatternFilter) *LocalGate {
	return &LocalGate{lexical: lexical, patterns: patterns}
}

// NewLocalGateFromBlocklist builds the default dictionary plus bl's entries,
// minus bl's allow list.
func NewLocalGateFromBlocklist(bl Blocklist) (*LocalGate, error) {
	lexical := NewLexicalFilter(DefaultWords()...)
	lexical.AddWords(bl.Words()...)
	lexical.RemoveWords(bl.AllowWords...)

	patterns, err := NewPatternFilter(bl)
	if err != nil {
		return nil, err
	}
	return NewLocalGate(lexical, patterns), nil
}

// DefaultLocalGate returns a gate with the built-in rules.
func DefaultLocalGate() *LocalGate {
	g, err := NewLocalGateFromBlocklist(DefaultBlocklist())
	if err != nil {
		panic(err)
	}
	return g
}

// Lexical returns the gate's mutable word filter.
func (g *LocalGate) Lexical() *LexicalFilter {
	return g.lexical
}

// LocalSafe reports whether text passes both local filters.
// Empty text is safe.
func (g *LocalGate) LocalSafe(text string) bool {
	reason, _ := g.Explain(text)
	return reason == ""
}

// Explain returns which filter rejected text and the word or pattern that
// fired. Both are empty when text is safe.
func (g *LocalGate) Explain(text string) (reason, term string) {
	scan := Normalize(text)
	if scan == "" {
		return "", ""
	}
	if w, ok := g.lexical.Find(scan); ok {
		return ReasonLexical, w
	}
	if name, ok := g.patterns.Match(scan); ok {
		return ReasonPattern, name
	}
	return "", ""
}
