package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// MetaplexProgramID is the Metaplex Token Metadata program.
const MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// PublicKeyLength is the byte length of a Solana public key.
const PublicKeyLength = 32

// pdaMarker is appended to every PDA hash input.
const pdaMarker = "ProgramDerivedAddress"

// ErrNoValidBump is returned when no bump seed yields an off-curve address.
var ErrNoValidBump = errors.New("no valid bump seed for program address")

// DecodePublicKey decodes a base58 public key and checks its length.
func DecodePublicKey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 %q: %w", s, err)
	}
	if len(b) != PublicKeyLength {
		return nil, fmt.Errorf("public key %q: got %d bytes, want %d", s, len(b), PublicKeyLength)
	}
	return b, nil
}

// IsValidMint reports whether s is a well-formed mint address.
func IsValidMint(s string) bool {
	_, err := DecodePublicKey(s)
	return err == nil
}

// FindProgramAddress derives a program derived address for seeds, trying
// bump seeds from 255 down until the hash falls off the ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID []byte) (string, uint8, error) {
	for bump := 255; bump > 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte(pdaMarker))
		sum := h.Sum(nil)

		if !isOnCurve(sum) {
			return base58.Encode(sum), uint8(bump), nil
		}
	}
	return "", 0, ErrNoValidBump
}

// MetadataAddress derives the Metaplex metadata account for mint.
// Seeds: ["metadata", metaplex_program_id, mint].
func MetadataAddress(mint string) (string, error) {
	mintBytes, err := DecodePublicKey(mint)
	if err != nil {
		return "", err
	}
	programBytes, err := DecodePublicKey(MetaplexProgramID)
	if err != nil {
		return "", err
	}

	addr, _, err := FindProgramAddress([][]byte{
		[]byte("metadata"),
		programBytes,
		mintBytes,
	}, programBytes)
	return addr, err
}

func isOnCurve(point []byte) bool {
	if len(point) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
