package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
)

// encodeMetadata builds account data the way the Metaplex program lays it out.
func encodeMetadata(t *testing.T, authority, mint []byte, name, symbol, uri string, pad [3]int) []byte {
	t.Helper()
	buf := []byte{metadataKeyV1}
	buf = append(buf, authority...)
	buf = append(buf, mint...)
	for i, s := range []string{name, symbol, uri} {
		field := make([]byte, pad[i])
		copy(field, s)
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(field)))
		buf = append(buf, n[:]...)
		buf = append(buf, field...)
	}
	// trailing fields (seller fee, creators, ...) are ignored
	return append(buf, 0xf4, 0x01, 0x00)
}

type fakeReader struct {
	info *AccountInfo
	err  error
	addr string
}

func (f *fakeReader) GetAccountInfo(_ context.Context, pubkey string) (*AccountInfo, error) {
	f.addr = pubkey
	return f.info, f.err
}

func TestDecodeMetadataAccount(t *testing.T) {
	mint, err := DecodePublicKey(wrappedSOL)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	authority := make([]byte, PublicKeyLength)

	data := encodeMetadata(t, authority, mint, "Doge", "DOGE", "https://arweave.net/abc", [3]int{32, 10, 200})
	md, err := DecodeMetadataAccount(data)
	if err != nil {
		t.Fatalf("DecodeMetadataAccount: %v", err)
	}
	if md.Mint != wrappedSOL {
		t.Errorf("mint = %s", md.Mint)
	}
	if md.Name != "Doge" || md.Symbol != "DOGE" {
		t.Errorf("name/symbol = %q/%q", md.Name, md.Symbol)
	}
	if md.URI != "https://arweave.net/abc" {
		t.Errorf("uri = %q", md.URI)
	}
}

func TestDecodeMetadataAccount_Invalid(t *testing.T) {
	key := make([]byte, PublicKeyLength)
	valid := encodeMetadata(t, key, key, "a", "b", "c", [3]int{32, 10, 200})

	wrongKey := append([]byte(nil), valid...)
	wrongKey[0] = 1

	hugeLen := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(hugeLen[1+2*PublicKeyLength:], 5000)

	tests := map[string][]byte{
		"empty":     nil,
		"short":     valid[:40],
		"wrong key": wrongKey,
		"truncated": valid[:1+2*PublicKeyLength+10],
		"huge len":  hugeLen,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeMetadataAccount(data); !errors.Is(err, ErrInvalidMetadata) {
				t.Errorf("expected ErrInvalidMetadata, got %v", err)
			}
		})
	}
}

func TestMetadataResolver_ResolveURI(t *testing.T) {
	mint, _ := DecodePublicKey(wrappedSOL)
	data := encodeMetadata(t, make([]byte, PublicKeyLength), mint, "Wrapped SOL", "SOL", "https://example.com/sol.json", [3]int{32, 10, 200})

	reader := &fakeReader{info: &AccountInfo{
		Owner: MetaplexProgramID,
		Data:  base64.StdEncoding.EncodeToString(data),
	}}
	r := NewMetadataResolver(reader)

	uri, err := r.ResolveURI(context.Background(), wrappedSOL)
	if err != nil {
		t.Fatalf("ResolveURI: %v", err)
	}
	if uri != "https://example.com/sol.json" {
		t.Errorf("uri = %q", uri)
	}

	want, _ := MetadataAddress(wrappedSOL)
	if reader.addr != want {
		t.Errorf("read %s, want metadata PDA %s", reader.addr, want)
	}
}

func TestMetadataResolver_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mint   string
		reader *fakeReader
		target error
	}{
		{name: "invalid mint", mint: "not-a-key", reader: &fakeReader{}},
		{name: "missing account", mint: wrappedSOL, reader: &fakeReader{}, target: ErrMetadataNotFound},
		{name: "wrong owner", mint: wrappedSOL, reader: &fakeReader{info: &AccountInfo{Owner: "11111111111111111111111111111111"}}, target: ErrInvalidMetadata},
		{name: "bad base64", mint: wrappedSOL, reader: &fakeReader{info: &AccountInfo{Owner: MetaplexProgramID, Data: "%%%"}}, target: ErrInvalidMetadata},
		{name: "rpc failure", mint: wrappedSOL, reader: &fakeReader{err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMetadataResolver(tt.reader).ResolveURI(context.Background(), tt.mint)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}
