package zkaa

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NonceHolderAddress is the system contract that tracks account nonces on
// zkSync.
var NonceHolderAddress = common.HexToAddress("0x0000000000000000000000000000000000008003")

// NonceHolder reads nonces from the nonce holder system contract. Nothing
// is cached: every GetMinNonce is a fresh eth_call.
type NonceHolder struct {
	contract Contract
	log      *slog.Logger
}

func NewNonceHolder(contract Contract, logger *slog.Logger) *NonceHolder {
	if logger == nil {
		logger = slog.Default()
	}
	return &NonceHolder{contract: contract, log: logger}
}

// GetMinNonce returns the nonce the next transaction of account must use.
func (n *NonceHolder) GetMinNonce(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := n.contract.Call(ctx, "getMinNonce", account)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonceQueryFailed, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: getMinNonce returned %d values", ErrNonceQueryFailed, len(out))
	}
	nonce, ok := out[0].(*big.Int)
	if !ok || nonce == nil {
		return nil, fmt.Errorf("%w: getMinNonce returned %T", ErrNonceQueryFailed, out[0])
	}

	n.log.Debug(fmt.Sprintf("Got min nonce from %s: %s (account=%s)", n.contract.Address().Hex(), nonce, account.Hex()))
	return new(big.Int).Set(nonce), nil
}
