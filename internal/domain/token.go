package domain

// BlockedDescription replaces the description of tokens that fail moderation.
const BlockedDescription = "[Blocked for unsafe content]"

// TokenEvent is one newly-created token announcement received from the stream.
// Mint is never mutated after receipt; Logo and Metadata are filled in by enrichment.
type TokenEvent struct {
	Mint            string         `json:"mint"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	URI             string         `json:"uri,omitempty"`
	Description     string         `json:"description,omitempty"`
	Timestamp       int64          `json:"timestamp"` // receipt time (ms)
	Logo            string         `json:"logo,omitempty"`
	Metadata        *TokenMetadata `json:"metadata,omitempty"`
	MetadataAccount string         `json:"metadataAccount,omitempty"` // derived metaplex PDA
}

// Clone returns a deep copy of the event.
func (e TokenEvent) Clone() TokenEvent {
	c := e
	c.Metadata = e.Metadata.Clone()
	return c
}

// Block applies the unsafe-content treatment: logo cleared, descriptions
// replaced, metadata image cleared.
func (e *TokenEvent) Block() {
	e.Logo = ""
	if e.Description != "" {
		e.Description = BlockedDescription
	}
	if e.Metadata != nil {
		e.Metadata.Description = BlockedDescription
		e.Metadata.Image = ""
	}
}
