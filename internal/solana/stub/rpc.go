// Package stub provides an in-memory Solana account reader for tests.
package stub

import (
	"context"
	"sync"

	"solana-token-feed/internal/solana"
)

// AccountReader implements solana.AccountReader from a fixed account map.
type AccountReader struct {
	mu       sync.Mutex
	accounts map[string]*solana.AccountInfo
	err      error
	reads    []string
}

// NewAccountReader creates an empty stub reader.
func NewAccountReader() *AccountReader {
	return &AccountReader{accounts: make(map[string]*solana.AccountInfo)}
}

// SetAccount stores info under pubkey.
func (r *AccountReader) SetAccount(pubkey string, info *solana.AccountInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[pubkey] = info
}

// SetError makes every read fail with err.
func (r *AccountReader) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Reads returns the pubkeys read so far, in order.
func (r *AccountReader) Reads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reads...)
}

// GetAccountInfo returns the stored account, or nil if none.
func (r *AccountReader) GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, pubkey)
	if r.err != nil {
		return nil, r.err
	}
	return r.accounts[pubkey], nil
}

var _ solana.AccountReader = (*AccountReader)(nil)
