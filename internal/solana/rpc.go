// Package solana provides the chain access layer: a JSON-RPC client for
// transaction submission, an ed25519 wallet, and a WebSocket confirmer.
package solana

import "context"

// RPCClient defines the Solana RPC surface the execution pipeline needs.
type RPCClient interface {
	// GetLatestBlockhash retrieves a recent blockhash and the last block
	// height at which a transaction referencing it remains valid.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetBlockHeight retrieves the current confirmed block height.
	GetBlockHeight(ctx context.Context) (uint64, error)

	// SimulateTransaction dry-runs a signed base64 transaction without
	// broadcasting it.
	SimulateTransaction(ctx context.Context, txBase64 string) (*SimulationResult, error)

	// SendTransaction broadcasts a signed base64 transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, txBase64 string, skipPreflight bool) (string, error)

	// GetSignatureStatuses retrieves confirmation status for signatures.
	// Entries are nil for signatures the cluster does not know about.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// Blockhash is a recent blockhash with its validity horizon.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SimulationResult is the outcome of a transaction dry run. A non-nil Err
// means the transaction would fail on chain; Logs carry the program output.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// Failed reports whether the simulated transaction would fail.
func (r *SimulationResult) Failed() bool {
	return r != nil && r.Err != nil
}

// SignatureStatus is the cluster's view of one submitted signature.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64 // nil once rooted
	ConfirmationStatus string  // processed, confirmed, finalized
	Err                interface{}
}

// Confirmed reports whether the signature reached at least confirmed
// commitment without a transaction error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}
