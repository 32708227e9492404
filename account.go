package zkaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
)

// ExecuteRequest describes the call an account should make.
type ExecuteRequest struct {
	To    string
	Value *big.Int
	Data  []byte
}

// AccountOpts tunes an Account. The zero value uses EIP712TxType.
type AccountOpts struct {
	TxType uint64
	// Chain is used to describe the network when a failed submission is
	// saved. It may be nil.
	Chain  ChainReader
	Logger *slog.Logger
}

// Account drives a smart-contract account: it asks the nonce holder for
// the account's nonce, builds the transaction and hands it to the account's
// executeTransaction method.
type Account struct {
	contract  Contract
	nonces    *NonceHolder
	builder   *Builder
	submitter *Submitter
	txType    uint64
	chain     ChainReader
	log       *slog.Logger
}

func NewAccount(contract Contract, nonces *NonceHolder, builder *Builder, submitter *Submitter, opts AccountOpts) *Account {
	txType := opts.TxType
	if txType == 0 {
		txType = EIP712TxType
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Account{
		contract:  contract,
		nonces:    nonces,
		builder:   builder,
		submitter: submitter,
		txType:    txType,
		chain:     opts.Chain,
		log:       logger,
	}
}

// Prepare reads the current nonce and builds the transaction for req
// without sending anything.
func (a *Account) Prepare(ctx context.Context, req ExecuteRequest) (*UnsignedTransaction, error) {
	from := a.contract.Address()
	nonce, err := a.nonces.GetMinNonce(ctx, from)
	if err != nil {
		return nil, err
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	return a.builder.Build(a.txType, from.Hex(), req.To, value, nonce, req.Data)
}

// Execute prepares a fresh transaction and submits it through the account's
// executeTransaction method. The built transaction is returned even when
// submission fails so it can be inspected, but it must not be resent: its
// nonce may already be used.
func (a *Account) Execute(ctx context.Context, req ExecuteRequest) (*UnsignedTransaction, *Receipt, error) {
	tx, err := a.Prepare(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	a.log.Info(fmt.Sprintf("Executing transaction: account=%s to=%s nonce=%s value=%s dataLen=%d",
		tx.From().Hex(), tx.To().Hex(), tx.Nonce(), tx.Value(), len(req.Data)))

	var emptyHash [32]byte
	receipt, err := a.submitter.Submit(ctx, a.contract, "executeTransaction", emptyHash, emptyHash, tx.Tuple())
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			SaveFailedSubmission(context.WithoutCancel(ctx), a.chain, tx, subErr)
		}
		return tx, receipt, err
	}
	return tx, receipt, nil
}
