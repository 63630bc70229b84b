// Package moderation decides whether token content is safe to display.
//
// A verdict is produced by a local gate (lexical and pattern filters over
// normalized text), a TTL cache of prior verdicts, a minimum-interval rate
// limiter and a remote classifier reached through the moderation proxy.
// Local hits never reach the network. Remote failures block.
package moderation

import "strings"

// obfuscationChars are replaced with spaces before scanning.
const obfuscationChars = "*_-@#$!.,/"

var obfuscationReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(obfuscationChars))
	for _, c := range obfuscationChars {
		pairs = append(pairs, string(c), " ")
	}
	return strings.NewReplacer(pairs...)
}()

// Normalize lower-cases text, replaces obfuscation characters with spaces
// and trims the result. The output is also the cache key.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(obfuscationReplacer.Replace(strings.ToLower(text)))
}
