// Package stub provides in-memory chain clients for tests.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Leo-moon-max/BagsAiTradingBot/internal/solana"
)

// RPCClient implements solana.RPCClient with scripted responses.
type RPCClient struct {
	mu sync.Mutex

	Blockhash   *solana.Blockhash
	BlockHeight uint64

	// Simulation is returned by SimulateTransaction; SimulateErr preempts it.
	Simulation  *solana.SimulationResult
	SimulateErr error

	// NextSignature is returned by SendTransaction; SendErr preempts it.
	NextSignature string
	SendErr       error

	// Statuses maps signature to its scripted status.
	Statuses map[string]*solana.SignatureStatus

	SendCount     int
	SimulateCount int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a stub with a valid default blockhash.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:     &solana.Blockhash{Blockhash: "StubBlockhash1111", LastValidBlockHeight: 1000},
		BlockHeight:   500,
		Simulation:    &solana.SimulationResult{},
		NextSignature: "StubSignature1111",
		Statuses:      make(map[string]*solana.SignatureStatus),
	}
}

func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Blockhash == nil {
		return nil, errors.New("no blockhash scripted")
	}
	bh := *c.Blockhash
	return &bh, nil
}

func (c *RPCClient) GetBlockHeight(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.BlockHeight, nil
}

func (c *RPCClient) SimulateTransaction(_ context.Context, _ string) (*solana.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SimulateCount++
	if c.SimulateErr != nil {
		return nil, c.SimulateErr
	}
	return c.Simulation, nil
}

func (c *RPCClient) SendTransaction(_ context.Context, _ string, _ bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SendCount++
	if c.SendErr != nil {
		return "", c.SendErr
	}
	sig := fmt.Sprintf("%s-%d", c.NextSignature, c.SendCount)
	return sig, nil
}

func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

// Confirmer implements solana.Confirmer with scripted confirmations.
type Confirmer struct {
	mu sync.Mutex

	// Confirmations maps signature to its scripted result; missing entries
	// block until the context expires, mimicking a transaction that never
	// lands, unless Auto is set.
	Confirmations map[string]*solana.SignatureConfirmation
	ConfirmErr    error

	// Auto confirms any signature at AutoSlot when no scripted entry exists.
	Auto     bool
	AutoSlot uint64
	AutoErr  interface{} // on-chain failure for auto confirmations
}

var _ solana.Confirmer = (*Confirmer)(nil)

// NewConfirmer creates an empty stub confirmer.
func NewConfirmer() *Confirmer {
	return &Confirmer{Confirmations: make(map[string]*solana.SignatureConfirmation)}
}

func (c *Confirmer) ConfirmSignature(ctx context.Context, signature string) (*solana.SignatureConfirmation, error) {
	c.mu.Lock()
	err := c.ConfirmErr
	conf, ok := c.Confirmations[signature]
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		if c.Auto {
			return &solana.SignatureConfirmation{Signature: signature, Slot: c.AutoSlot, Err: c.AutoErr}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return conf, nil
}

// Confirm scripts a clean confirmation for a signature.
func (c *Confirmer) Confirm(signature string, slot uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Confirmations[signature] = &solana.SignatureConfirmation{Signature: signature, Slot: slot}
}
