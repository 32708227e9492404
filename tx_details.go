package zkaa

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// PriorityTxType is the type of transactions requested from L1.
const PriorityTxType = 255

// GetTypeName returns human-readable name for transaction type
func GetTypeName(txType uint64) string {
	switch txType {
	case types.LegacyTxType:
		return "legacy"
	case types.AccessListTxType:
		return "access_list"
	case types.DynamicFeeTxType:
		return "dynamic_fee"
	case types.BlobTxType:
		return "blob"
	case types.SetCodeTxType:
		return "set_code"
	case EIP712TxType:
		return "eip712"
	case PriorityTxType:
		return "priority"
	default:
		return fmt.Sprintf("type_%d", txType)
	}
}

// FormatTransactionDetails returns a formatted multi-line string describing tx
func FormatTransactionDetails(tx *UnsignedTransaction) string {
	var b strings.Builder

	b.WriteString("\n=== Account Transaction ===\n")
	b.WriteString(fmt.Sprintf("Type:              %s (%d)\n", GetTypeName(tx.TxType()), tx.TxType()))
	b.WriteString(fmt.Sprintf("Nonce:             %s\n", tx.Nonce()))
	b.WriteString(fmt.Sprintf("From:              %s\n", tx.From().Hex()))
	b.WriteString(fmt.Sprintf("To:                %s\n", tx.To().Hex()))

	value := tx.Value()
	b.WriteString(fmt.Sprintf("Value:             %s wei", value))
	if value.Sign() > 0 {
		ethValue := new(big.Float).Quo(new(big.Float).SetInt(value), big.NewFloat(params.Ether))
		b.WriteString(fmt.Sprintf(" (%.6f ETH)", ethValue))
	}
	b.WriteString("\n")

	data := tx.Data()
	dataLen := len(data)
	if dataLen > 0 {
		dataHex := common.Bytes2Hex(data)
		if dataLen <= 32 {
			b.WriteString(fmt.Sprintf("Data:              0x%s (%d bytes)\n", dataHex, dataLen))
		} else {
			b.WriteString(fmt.Sprintf("Data:              0x%s...%s (%d bytes)\n",
				dataHex[:64], dataHex[len(dataHex)-8:], dataLen))
		}
	} else {
		b.WriteString("Data:              <none>\n")
	}

	b.WriteString("\nGas Parameters:\n")
	b.WriteString(fmt.Sprintf("  Gas Limit:       %s\n", tx.GasLimit()))
	b.WriteString(fmt.Sprintf("  Pubdata Limit:   %s gas/byte\n", tx.GasPerPubdataByteLimit()))
	b.WriteString(fmt.Sprintf("  Max Fee:         %s wei (%s gwei)\n", tx.MaxFeePerGas(), toGwei(tx.MaxFeePerGas())))
	b.WriteString(fmt.Sprintf("  Priority Fee:    %s wei (%s gwei)\n", tx.MaxPriorityFeePerGas(), toGwei(tx.MaxPriorityFeePerGas())))

	if paymaster := tx.Paymaster(); paymaster != (common.Address{}) {
		b.WriteString(fmt.Sprintf("\nPaymaster:         %s\n", paymaster.Hex()))
		b.WriteString(fmt.Sprintf("Paymaster Input:   %d bytes\n", len(tx.PaymasterInput())))
	}
	if deps := tx.FactoryDeps(); len(deps) > 0 {
		b.WriteString(fmt.Sprintf("\nFactory Deps:      %d\n", len(deps)))
		for i, dep := range deps {
			b.WriteString(fmt.Sprintf("  [%d] %s\n", i, common.Hash(dep).Hex()))
		}
	}
	b.WriteString(fmt.Sprintf("\nSignature:         %d bytes\n", len(tx.Signature())))
	b.WriteString("===========================")

	return b.String()
}

// FormatReceipt returns a short multi-line summary of a submission outcome.
func FormatReceipt(r *Receipt) string {
	var b strings.Builder

	b.WriteString("\n=== Submission ===\n")
	b.WriteString(fmt.Sprintf("State:             %s\n", r.State))
	if r.TxHash != (common.Hash{}) {
		b.WriteString(fmt.Sprintf("Hash:              %s\n", r.TxHash.Hex()))
	}
	if rec := r.Receipt; rec != nil {
		b.WriteString(fmt.Sprintf("Block:             %v\n", rec.BlockNumber))
		b.WriteString(fmt.Sprintf("Status:            %d\n", rec.Status))
		b.WriteString(fmt.Sprintf("Gas Used:          %d\n", rec.GasUsed))
		if rec.EffectiveGasPrice != nil {
			b.WriteString(fmt.Sprintf("Gas Price:         %s wei\n", rec.EffectiveGasPrice))
		}
		b.WriteString(fmt.Sprintf("Logs:              %d\n", len(rec.Logs)))
	}
	b.WriteString("==================")

	return b.String()
}

func toGwei(wei *big.Int) string {
	return new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.GWei)).Text('f', 2)
}
