package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Envelope wraps/unwraps a frame body with a preshared AES key in CTR
// mode, prefixed by a 16-byte nonce (spec.md §4.5/§9: "AES key-wrap
// header followed by AES-CTR-encrypted remainder"). This key is
// distinct from, and must never be shared with, pkg/cryptolayer's
// in-band KMM traffic-encryption keys.
type Envelope struct {
	block cipher.Block
}

// NewEnvelope builds an Envelope from a 16/24/32-byte preshared key.
func NewEnvelope(key []byte) (*Envelope, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("transport: preshared key: %w", err)
	}
	return &Envelope{block: block}, nil
}

// Wrap prepends a random nonce and CTR-encrypts body.
func (e *Envelope) Wrap(body []byte) ([]byte, error) {
	nonce := make([]byte, AESWrappedPckKeyLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("transport: nonce: %w", err)
	}
	stream := cipher.NewCTR(e.block, nonce)
	out := make([]byte, AESWrappedPckKeyLen+len(body))
	copy(out, nonce)
	stream.XORKeyStream(out[AESWrappedPckKeyLen:], body)
	return out, nil
}

// NewEnvelopeFromPassphrase derives a 32-byte AES key from an
// operator-configured passphrase via HKDF-SHA256, so the preshared
// key never has to be handled as raw key bytes in config files. salt
// should be a fixed per-deployment value (e.g. the server name).
func NewEnvelopeFromPassphrase(passphrase, salt string) (*Envelope, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(passphrase), []byte(salt), []byte("dvmfne-transport-envelope"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("transport: deriving envelope key: %w", err)
	}
	return NewEnvelope(key)
}

// Unwrap reverses Wrap.
func (e *Envelope) Unwrap(wrapped []byte) ([]byte, error) {
	if len(wrapped) < AESWrappedPckKeyLen {
		return nil, fmt.Errorf("transport: short wrapped envelope (%d bytes)", len(wrapped))
	}
	nonce := wrapped[:AESWrappedPckKeyLen]
	ct := wrapped[AESWrappedPckKeyLen:]
	stream := cipher.NewCTR(e.block, nonce)
	out := make([]byte, len(ct))
	stream.XORKeyStream(out, ct)
	return out, nil
}
