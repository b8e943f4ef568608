package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrMalformedTransaction is returned when a serialized transaction cannot
// be parsed into its signature array and message.
var ErrMalformedTransaction = errors.New("malformed transaction")

// SignTransaction signs a serialized unsigned transaction as returned by the
// swap builder: the fee payer's signature slot is filled in place and the
// message bytes are left untouched. Returns the signed transaction and the
// base58 signature that will identify it on chain.
func SignTransaction(tx []byte, w *Wallet) ([]byte, string, error) {
	numSigs, sigArrayStart, err := decodeCompactU16(tx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	if numSigs == 0 {
		return nil, "", fmt.Errorf("%w: zero signature slots", ErrMalformedTransaction)
	}

	msgStart := sigArrayStart + numSigs*ed25519.SignatureSize
	if msgStart >= len(tx) {
		return nil, "", fmt.Errorf("%w: truncated signature array", ErrMalformedTransaction)
	}

	// The fee payer is the first account of the message, so its signature
	// occupies slot zero.
	sig := w.Sign(tx[msgStart:])

	signed := make([]byte, len(tx))
	copy(signed, tx)
	copy(signed[sigArrayStart:], sig)

	return signed, base58.Encode(sig), nil
}

// decodeCompactU16 decodes the shortvec length prefix used by the Solana
// wire format. Returns the value and the number of bytes consumed.
func decodeCompactU16(b []byte) (int, int, error) {
	value := 0
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, errors.New("truncated compact-u16")
		}
		value |= int(b[i]&0x7f) << (7 * i)
		if b[i]&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, errors.New("compact-u16 too long")
}
