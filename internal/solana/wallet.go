package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidKey is returned when wallet key material is malformed.
var ErrInvalidKey = errors.New("invalid wallet key")

// Wallet holds an ed25519 signing keypair. The public key is validated to be
// a canonical curve point at construction so a corrupt key fails at startup,
// not at broadcast time.
type Wallet struct {
	priv ed25519.PrivateKey
	addr string
}

// NewWallet parses a base58-encoded 64-byte ed25519 keypair (the standard
// Solana keypair export: 32-byte seed followed by the 32-byte public key).
func NewWallet(encodedKey string) (*Wallet, error) {
	raw, err := base58.Decode(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), ed25519.PrivateKeySize)
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("%w: public key is not on the curve: %v", ErrInvalidKey, err)
	}

	// The embedded public key must match the one the seed derives, otherwise
	// the keypair file is corrupt and signatures would never verify.
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !priv.Equal(derived) {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrInvalidKey)
	}

	return &Wallet{
		priv: priv,
		addr: base58.Encode(pub),
	}, nil
}

// PublicKey returns the base58-encoded wallet address.
func (w *Wallet) PublicKey() string {
	return w.addr
}

// Sign signs a message with the wallet key.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}
