package solana

import "context"

// Confirmer waits for a broadcast signature to reach confirmed commitment.
type Confirmer interface {
	// ConfirmSignature blocks until the signature is confirmed, the
	// transaction fails on chain, or the context expires.
	ConfirmSignature(ctx context.Context, signature string) (*SignatureConfirmation, error)
}

// SignatureConfirmation is the terminal notification for one signature.
// A non-nil Err means the transaction landed but failed.
type SignatureConfirmation struct {
	Signature string
	Slot      uint64
	Err       interface{}
}
