package domain

// TokenMetadata is the off-chain JSON document referenced by a token's URI.
// Every field is optional and untrusted.
type TokenMetadata struct {
	Name        string `json:"name,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ShowName    *bool  `json:"showName,omitempty"`
	CreatedOn   string `json:"createdOn,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Clone returns a deep copy of the metadata. Nil-safe.
func (m *TokenMetadata) Clone() *TokenMetadata {
	if m == nil {
		return nil
	}
	c := *m
	if m.ShowName != nil {
		v := *m.ShowName
		c.ShowName = &v
	}
	return &c
}
