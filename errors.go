package zkaa

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrOutOfRange       = errors.New("integer out of uint256 range")
	ErrNonceQueryFailed = errors.New("nonce query failed")
	ErrSubmissionFailed = errors.New("submission failed")
)

// SubmissionError is returned by Submit for every unsuccessful submission.
// It matches ErrSubmissionFailed with errors.Is and unwraps to the
// underlying reason.
type SubmissionError struct {
	State  SubmissionState
	TxHash common.Hash
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("%s (%s): %v", ErrSubmissionFailed, e.State, e.Err)
	}
	return fmt.Sprintf("%s (%s, tx=%s): %v", ErrSubmissionFailed, e.State, e.TxHash.Hex(), e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}
