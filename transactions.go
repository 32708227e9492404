package zkaa

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
)

// EstimateGas asks the node for a gas estimate and scales it by multiplier.
// An estimation failure usually means the call reverts and is returned
// as is.
func EstimateGas(ctx context.Context, backend ethereum.GasEstimator, msg ethereum.CallMsg, multiplier float64) (uint64, error) {
	gas, err := backend.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	if multiplier <= 0 {
		return gas, nil
	}

	adjustedGas := uint64(float64(gas) * multiplier)
	if multiplier != 1.0 {
		slog.Debug(fmt.Sprintf("Estimated gas: %d, adjusted: %d (multiplier: %.2f)", gas, adjustedGas, multiplier))
	}
	return adjustedGas, nil
}

// FeeSuggester is the part of a node connection SuggestFees needs.
type FeeSuggester interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// SuggestFees fills the unset fee caps of fees from the node. Limits are
// never suggested; they stay caller configuration.
func SuggestFees(ctx context.Context, backend FeeSuggester, fees Fees) (Fees, error) {
	out := fees
	if out.MaxPriorityFeePerGas == nil {
		tip, err := backend.SuggestGasTipCap(ctx)
		if err != nil {
			return Fees{}, fmt.Errorf("suggest gas tip cap: %w", err)
		}
		out.MaxPriorityFeePerGas = tip
	}
	if out.MaxFeePerGas == nil {
		feeCap, err := backend.SuggestGasPrice(ctx)
		if err != nil {
			return Fees{}, fmt.Errorf("suggest gas price: %w", err)
		}
		// The fee cap must cover the tip.
		if feeCap.Cmp(out.MaxPriorityFeePerGas) < 0 {
			feeCap = new(big.Int).Set(out.MaxPriorityFeePerGas)
		}
		out.MaxFeePerGas = feeCap
	}
	slog.Debug(fmt.Sprintf("Using fees: maxFeePerGas=%s maxPriorityFeePerGas=%s", out.MaxFeePerGas, out.MaxPriorityFeePerGas))
	return out, nil
}
