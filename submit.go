package zkaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultConfirmTimeout bounds how long Submit waits for a receipt.
const DefaultConfirmTimeout = 5 * time.Minute

// SubmissionState tracks one submission: Built -> Sent -> Confirmed,
// Reverted or TimedOut. Rejected is reached straight from Built when the
// node refuses the transaction, so nothing was broadcast.
type SubmissionState int

const (
	StateBuilt SubmissionState = iota
	StateSent
	StateConfirmed
	StateReverted
	StateTimedOut
	StateRejected
)

func (s SubmissionState) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSent:
		return "sent"
	case StateConfirmed:
		return "confirmed"
	case StateReverted:
		return "reverted"
	case StateTimedOut:
		return "timed_out"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state_%d", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s SubmissionState) Terminal() bool {
	return s == StateConfirmed || s == StateReverted || s == StateTimedOut || s == StateRejected
}

// Receipt is the outcome of a submission.
type Receipt struct {
	State   SubmissionState
	TxHash  common.Hash
	Receipt *types.Receipt
}

// Submitter sends one state-changing call and waits until it is mined.
type Submitter struct {
	timeout time.Duration
	log     *slog.Logger
}

// NewSubmitter returns a Submitter that gives up waiting after timeout.
// A non-positive timeout selects DefaultConfirmTimeout.
func NewSubmitter(timeout time.Duration, logger *slog.Logger) *Submitter {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{timeout: timeout, log: logger}
}

// Submit calls method on contract and blocks until the transaction is mined,
// the confirmation timeout passes or ctx is done. There are no retries.
//
// Once the transaction has been broadcast it cannot be recalled: cancelling
// ctx afterwards only stops the wait, and the returned error then reports
// StateSent. A retry must build a new transaction with a fresh nonce.
//
// On failure the receipt is still returned alongside a *SubmissionError so
// callers can inspect the final state and transaction hash.
func (s *Submitter) Submit(ctx context.Context, contract Contract, method string, args ...any) (*Receipt, error) {
	res := &Receipt{State: StateBuilt}

	pending, err := contract.Send(ctx, method, args...)
	if err != nil {
		res.State = StateRejected
		return res, s.fail(res, err)
	}
	res.State = StateSent
	res.TxHash = pending.Hash()
	s.log.Info(fmt.Sprintf("Submitted %s to %s: hash=%s", method, contract.Address().Hex(), res.TxHash.Hex()))

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	receipt, err := pending.Wait(waitCtx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// The caller gave up; the transaction may still be mined.
		case errors.Is(err, context.DeadlineExceeded):
			res.State = StateTimedOut
			err = fmt.Errorf("not mined within %v: %w", s.timeout, err)
		}
		return res, s.fail(res, err)
	}

	res.Receipt = receipt
	if receipt.Status != types.ReceiptStatusSuccessful {
		res.State = StateReverted
		return res, s.fail(res, fmt.Errorf("transaction reverted in block %v (gasUsed=%d)", receipt.BlockNumber, receipt.GasUsed))
	}
	res.State = StateConfirmed
	s.log.Info(fmt.Sprintf("Transaction confirmed: hash=%s block=%v gasUsed=%d", res.TxHash.Hex(), receipt.BlockNumber, receipt.GasUsed))
	return res, nil
}

func (s *Submitter) fail(res *Receipt, err error) error {
	s.log.Warn(fmt.Sprintf("Submission %s: %v", res.State, err))
	return &SubmissionError{State: res.State, TxHash: res.TxHash, Err: err}
}
