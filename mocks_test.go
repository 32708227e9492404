package zkaa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const transactionTupleABI = `{"name":"_transaction","type":"tuple","internalType":"struct Transaction","components":[
	{"name":"txType","type":"uint256"},
	{"name":"from","type":"uint256"},
	{"name":"to","type":"uint256"},
	{"name":"gasLimit","type":"uint256"},
	{"name":"gasPerPubdataByteLimit","type":"uint256"},
	{"name":"maxFeePerGas","type":"uint256"},
	{"name":"maxPriorityFeePerGas","type":"uint256"},
	{"name":"paymaster","type":"uint256"},
	{"name":"nonce","type":"uint256"},
	{"name":"value","type":"uint256"},
	{"name":"reserved","type":"uint256[4]"},
	{"name":"data","type":"bytes"},
	{"name":"signature","type":"bytes"},
	{"name":"factoryDeps","type":"bytes32[]"},
	{"name":"paymasterInput","type":"bytes"},
	{"name":"reservedDynamic","type":"bytes"}]}`

var accountABIJSON = `[{"type":"function","name":"executeTransaction","stateMutability":"payable","outputs":[],"inputs":[
	{"name":"","type":"bytes32"},
	{"name":"","type":"bytes32"},
	` + transactionTupleABI + `]}]`

const nonceHolderABIJSON = `[{"type":"function","name":"getMinNonce","stateMutability":"view",
	"inputs":[{"name":"_address","type":"address"}],
	"outputs":[{"name":"","type":"uint256"}]}]`

func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// contractMock is a Contract whose behaviour is set per test.
type contractMock struct {
	address  common.Address
	CallFunc func(ctx context.Context, method string, args ...any) ([]any, error)
	SendFunc func(ctx context.Context, method string, args ...any) (PendingTx, error)

	mu    sync.Mutex
	calls []string
}

var _ Contract = (*contractMock)(nil)

func (c *contractMock) Address() common.Address {
	return c.address
}

func (c *contractMock) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	c.record("call:" + method)
	if c.CallFunc == nil {
		return nil, errors.New("unexpected call")
	}
	return c.CallFunc(ctx, method, args...)
}

func (c *contractMock) Send(ctx context.Context, method string, args ...any) (PendingTx, error) {
	c.record("send:" + method)
	if c.SendFunc == nil {
		return nil, errors.New("unexpected send")
	}
	return c.SendFunc(ctx, method, args...)
}

func (c *contractMock) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *contractMock) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type pendingTxMock struct {
	hash     common.Hash
	WaitFunc func(ctx context.Context) (*types.Receipt, error)
}

func (p *pendingTxMock) Hash() common.Hash {
	return p.hash
}

func (p *pendingTxMock) Wait(ctx context.Context) (*types.Receipt, error) {
	return p.WaitFunc(ctx)
}

// blockUntilDone waits like a transaction that is never mined.
func blockUntilDone(ctx context.Context) (*types.Receipt, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stubChain is an in-memory node hosting one smart-contract account and the
// nonce holder. The account accepts executeTransaction only with the nonce
// the nonce holder reports and then bumps it.
type stubChain struct {
	mu sync.Mutex

	account     common.Address
	nonceHolder common.Address
	accountABI  abi.ABI
	holderABI   abi.ABI
	chainID     *big.Int

	minNonce  *big.Int
	revert    bool
	neverMine bool
	sendErr   error
	callErr   error

	executed []Transaction
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

var _ Backend = (*stubChain)(nil)

func newStubChain(account common.Address, minNonce int64) *stubChain {
	return &stubChain{
		account:     account,
		nonceHolder: NonceHolderAddress,
		accountABI:  mustABI(accountABIJSON),
		holderABI:   mustABI(nonceHolderABIJSON),
		chainID:     big.NewInt(260),
		minNonce:    big.NewInt(minNonce),
		receipts:    make(map[common.Hash]*types.Receipt),
	}
}

func (s *stubChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.chainID), nil
}

func (s *stubChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (s *stubChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x01}, nil
}

func (s *stubChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callErr != nil {
		return nil, s.callErr
	}
	if call.To == nil || *call.To != s.nonceHolder || len(call.Data) < 4 {
		return nil, fmt.Errorf("unexpected call to %v", call.To)
	}
	method, err := s.holderABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(new(big.Int).Set(s.minNonce))
}

func (s *stubChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1)}, nil
}

func (s *stubChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.sent)), nil
}

func (s *stubChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (s *stubChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (s *stubChain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (s *stubChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if tx.To() == nil || *tx.To() != s.account {
		return fmt.Errorf("unexpected destination %v", tx.To())
	}
	method, err := s.accountABI.MethodById(tx.Data()[:4])
	if err != nil {
		return err
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return err
	}
	inner := *abi.ConvertType(args[2], new(Transaction)).(*Transaction)
	if inner.Nonce.Cmp(s.minNonce) != 0 {
		return fmt.Errorf("incorrect nonce: expected %s, got %s", s.minNonce, inner.Nonce)
	}

	s.executed = append(s.executed, inner)
	s.sent = append(s.sent, tx)
	if s.neverMine {
		return nil
	}
	status := types.ReceiptStatusSuccessful
	if s.revert {
		status = types.ReceiptStatusFailed
	} else {
		s.minNonce = new(big.Int).Add(s.minNonce, big.NewInt(1))
	}
	s.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(2),
		GasUsed:     21_000,
	}
	return nil
}

func (s *stubChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (s *stubChain) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (s *stubChain) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions are not supported")
}

func (s *stubChain) Executed() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transaction(nil), s.executed...)
}

func (s *stubChain) MinNonce() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.minNonce)
}

func (s *stubChain) BlockNumber(ctx context.Context) (uint64, error) {
	return 1, nil
}
