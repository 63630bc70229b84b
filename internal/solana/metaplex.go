package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Metaplex metadata account layout (prefix only):
// key u8 | update_authority [32] | mint [32] | name str | symbol str | uri str
// where str is a little-endian u32 length followed by null-padded bytes.
const (
	metadataKeyV1     = 4
	maxMetadataString = 256
)

var (
	// ErrMetadataNotFound is returned when the mint has no metadata account.
	ErrMetadataNotFound = errors.New("metadata account not found")
	// ErrInvalidMetadata is returned for data that does not decode as a metadata account.
	ErrInvalidMetadata = errors.New("invalid metadata account")
)

// OnChainMetadata is the decoded head of a Metaplex metadata account.
type OnChainMetadata struct {
	UpdateAuthority string
	Mint            string
	Name            string
	Symbol          string
	URI             string
}

// DecodeMetadataAccount decodes raw metadata account data.
func DecodeMetadataAccount(data []byte) (*OnChainMetadata, error) {
	if len(data) < 1+2*PublicKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMetadata, len(data))
	}
	if data[0] != metadataKeyV1 {
		return nil, fmt.Errorf("%w: key %d", ErrInvalidMetadata, data[0])
	}

	off := 1
	md := &OnChainMetadata{
		UpdateAuthority: base58.Encode(data[off : off+PublicKeyLength]),
		Mint:            base58.Encode(data[off+PublicKeyLength : off+2*PublicKeyLength]),
	}
	off += 2 * PublicKeyLength

	for _, dst := range []*string{&md.Name, &md.Symbol, &md.URI} {
		s, n, err := readString(data[off:])
		if err != nil {
			return nil, err
		}
		*dst = s
		off += n
	}
	return md, nil
}

func readString(b []byte) (string, int, error) {
	if len(b) < 4 {
		return "", 0, fmt.Errorf("%w: truncated string length", ErrInvalidMetadata)
	}
	n := int(binary.LittleEndian.Uint32(b))
	if n > maxMetadataString || len(b) < 4+n {
		return "", 0, fmt.Errorf("%w: string length %d", ErrInvalidMetadata, n)
	}
	return strings.TrimRight(string(b[4:4+n]), "\x00"), 4 + n, nil
}

// MetadataResolver looks up a mint's metadata account over RPC.
type MetadataResolver struct {
	reader AccountReader
}

// NewMetadataResolver creates a resolver.
func NewMetadataResolver(reader AccountReader) *MetadataResolver {
	return &MetadataResolver{reader: reader}
}

// Resolve derives the metadata PDA for mint, reads it and decodes it.
func (r *MetadataResolver) Resolve(ctx context.Context, mint string) (*OnChainMetadata, error) {
	addr, err := MetadataAddress(mint)
	if err != nil {
		return nil, fmt.Errorf("derive metadata address: %w", err)
	}

	info, err := r.reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("get metadata account %s: %w", addr, err)
	}
	if info == nil {
		return nil, ErrMetadataNotFound
	}
	if info.Owner != MetaplexProgramID {
		return nil, fmt.Errorf("%w: owner %s", ErrInvalidMetadata, info.Owner)
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return DecodeMetadataAccount(data)
}

// ResolveURI returns the off-chain metadata URI recorded for mint.
func (r *MetadataResolver) ResolveURI(ctx context.Context, mint string) (string, error) {
	md, err := r.Resolve(ctx, mint)
	if err != nil {
		return "", err
	}
	return md.URI, nil
}
