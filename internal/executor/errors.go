package executor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStaleQuote is returned when the quote aged past its freshness window
// before signing. Retried with a fresh quote, within the attempt budget.
var ErrStaleQuote = errors.New("quote is stale")

// ErrBroadcastExpired is returned when the transaction's blockhash horizon
// passed without confirmation: the transaction can never land, so a retry
// with a fresh quote is safe.
var ErrBroadcastExpired = errors.New("broadcast expired without confirmation")

// ErrConfirmationTimeout is returned when the confirmation window closed
// without a confirmed or failed status. Expiry-class: retried from a fresh
// quote, after checking the signature did not land late.
var ErrConfirmationTimeout = errors.New("confirmation timed out")

// ErrConstraintViolated is returned when pre-sign revalidation finds the
// fresh quote outside the intent's bounds. Not a transient condition, so
// not retried.
var ErrConstraintViolated = errors.New("intent constraints violated")

// SimulationError carries the program logs of a failed dry run.
type SimulationError struct {
	Cause interface{}
	Logs  []string
}

func (e *SimulationError) Error() string {
	msg := fmt.Sprintf("simulation failed: %v", e.Cause)
	if len(e.Logs) > 0 {
		msg += "; logs: " + strings.Join(e.Logs, " | ")
	}
	return msg
}

// TransactionError carries an on-chain failure of a confirmed-landed
// transaction.
type TransactionError struct {
	Signature string
	Cause     interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed on chain: %v", e.Signature, e.Cause)
}

// retryable reports whether a pipeline error warrants a fresh attempt.
// Stale quotes and both expiry outcomes qualify; everything else is
// surfaced as is to avoid double-execution.
func retryable(err error) bool {
	return errors.Is(err, ErrStaleQuote) ||
		errors.Is(err, ErrBroadcastExpired) ||
		errors.Is(err, ErrConfirmationTimeout)
}
