package zkaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract is a callable stub for a deployed contract. Call performs a
// read-only eth_call, Send signs and broadcasts a state-changing call.
type Contract interface {
	Address() common.Address
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	Send(ctx context.Context, method string, args ...any) (PendingTx, error)
}

// PendingTx is a broadcast transaction that may not be mined yet.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

// Backend is the node connection a BoundContract needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// TransactOptsProvider hands out signing options for one transaction.
type TransactOptsProvider interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

var errNoSigner = errors.New("contract is bound without a signer")

// BoundContractOpts tunes a BoundContract. The zero value is usable.
type BoundContractOpts struct {
	// GasMultiplier scales the node's gas estimate for sends. 0 and 1 leave
	// estimation to go-ethereum.
	GasMultiplier float64
	Logger        *slog.Logger
}

// BoundContract implements Contract on top of go-ethereum's bind package.
type BoundContract struct {
	address       common.Address
	abi           abi.ABI
	bound         *bind.BoundContract
	backend       Backend
	signer        TransactOptsProvider
	gasMultiplier float64
	log           *slog.Logger
}

var _ Contract = (*BoundContract)(nil)

// NewBoundContract binds parsed to address. signer may be nil for
// contracts that are only read from.
func NewBoundContract(address common.Address, parsed abi.ABI, backend Backend, signer TransactOptsProvider, opts BoundContractOpts) *BoundContract {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BoundContract{
		address:       address,
		abi:           parsed,
		bound:         bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:       backend,
		signer:        signer,
		gasMultiplier: opts.GasMultiplier,
		log:           logger,
	}
}

func (c *BoundContract) Address() common.Address {
	return c.address
}

func (c *BoundContract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, c.address.Hex(), err)
	}
	return out, nil
}

func (c *BoundContract) Send(ctx context.Context, method string, args ...any) (PendingTx, error) {
	if c.signer == nil {
		return nil, errNoSigner
	}
	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("transact opts: %w", err)
	}
	opts.Context = ctx

	if opts.GasLimit == 0 && c.gasMultiplier != 0 && c.gasMultiplier != 1.0 {
		input, err := c.abi.Pack(method, args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		gas, err := EstimateGas(ctx, c.backend, ethereum.CallMsg{
			From:  opts.From,
			To:    &c.address,
			Value: opts.Value,
			Data:  input,
		}, c.gasMultiplier)
		if err != nil {
			return nil, err
		}
		opts.GasLimit = gas
	}

	c.log.Debug(fmt.Sprintf("Sending %s: from=%s to=%s gas=%d", method, opts.From.Hex(), c.address.Hex(), opts.GasLimit))
	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		c.log.Warn(fmt.Sprintf("Transaction failed: %v (method=%s from=%s to=%s)", err, method, opts.From.Hex(), c.address.Hex()))
		return nil, err
	}
	c.log.Debug(fmt.Sprintf("Transaction sent: hash=%s nonce=%d gas=%d", tx.Hash().Hex(), tx.Nonce(), tx.Gas()))
	return &pendingTx{tx: tx, backend: c.backend}, nil
}

type pendingTx struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	return bind.WaitMined(ctx, p.backend, p.tx)
}
