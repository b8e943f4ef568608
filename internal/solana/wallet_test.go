package solana

import (
	"crypto/ed25519"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// testKeypair builds a deterministic keypair from a seed byte.
func testKeypair(t *testing.T, fill byte) (ed25519.PrivateKey, string) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = fill
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv, base58.Encode(priv)
}

func TestNewWallet(t *testing.T) {
	priv, encoded := testKeypair(t, 7)

	w, err := NewWallet(encoded)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	wantAddr := base58.Encode(priv.Public().(ed25519.PublicKey))
	if w.PublicKey() != wantAddr {
		t.Errorf("PublicKey = %s, want %s", w.PublicKey(), wantAddr)
	}

	msg := []byte("attempt-payload")
	sig := w.Sign(msg)
	if !ed25519.Verify(priv.Public().(ed25519.PublicKey), msg, sig) {
		t.Error("signature does not verify against the wallet public key")
	}
}

func TestNewWallet_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not base58", "0OIl+/"},
		{"wrong length", base58.Encode(make([]byte, 32))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWallet(tt.encoded); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewWallet_RejectsMismatchedPublicKey(t *testing.T) {
	// Keypair bytes whose embedded public key belongs to a different seed.
	privA, _ := testKeypair(t, 1)
	privB, _ := testKeypair(t, 2)

	forged := make([]byte, ed25519.PrivateKeySize)
	copy(forged, privA[:ed25519.SeedSize])
	copy(forged[ed25519.SeedSize:], privB[ed25519.SeedSize:])

	if _, err := NewWallet(base58.Encode(forged)); err == nil {
		t.Error("expected mismatched keypair to be rejected")
	}
}

func TestNewWallet_RejectsOffCurvePublicKey(t *testing.T) {
	privA, _ := testKeypair(t, 3)

	// Find a 32-byte value that is not a canonical curve point.
	offCurve := make([]byte, 32)
	found := false
	for b := byte(0); b < 255; b++ {
		for i := range offCurve {
			offCurve[i] = b
		}
		if _, err := new(edwards25519.Point).SetBytes(offCurve); err != nil {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("no off-curve candidate found")
	}

	forged := make([]byte, ed25519.PrivateKeySize)
	copy(forged, privA[:ed25519.SeedSize])
	copy(forged[ed25519.SeedSize:], offCurve)

	if _, err := NewWallet(base58.Encode(forged)); err == nil {
		t.Error("expected off-curve public key to be rejected")
	}
}
