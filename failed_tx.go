package zkaa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// FailedSubmission contains complete context about a failed submission
type FailedSubmission struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	Error ErrorInfo `json:"error"`

	Network NetworkState `json:"network"`

	Transaction TransactionInfo `json:"transaction"`
}

// ErrorInfo contains information about the failure
type ErrorInfo struct {
	Message string `json:"message"`
	State   string `json:"state"`
	TxHash  string `json:"txHash,omitempty"`
}

// NetworkState contains network state at the time of failure
type NetworkState struct {
	ChainID     string `json:"chainId,omitempty"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	BaseFee     string `json:"baseFee,omitempty"`
}

// TransactionInfo is the unsigned account transaction that was submitted
type TransactionInfo struct {
	TxType                 uint64   `json:"txType"`
	From                   string   `json:"from"`
	To                     string   `json:"to"`
	Nonce                  string   `json:"nonce"`
	Value                  string   `json:"value"`
	GasLimit               string   `json:"gasLimit"`
	GasPerPubdataByteLimit string   `json:"gasPerPubdataByteLimit"`
	MaxFeePerGas           string   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas   string   `json:"maxPriorityFeePerGas"`
	Paymaster              string   `json:"paymaster"`
	Reserved               []string `json:"reserved"`
	Data                   string   `json:"data"`
	Signature              string   `json:"signature"`
	FactoryDeps            []string `json:"factoryDeps"`
	PaymasterInput         string   `json:"paymasterInput"`
	ReservedDynamic        string   `json:"reservedDynamic"`
}

// ChainReader is used to describe the network in a failure record.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type failedSubmissionStorage struct {
	enabled bool
	baseDir string
}

var storage *failedSubmissionStorage

// SetFailedSubmissionStorage enables or disables writing failed submissions
// to disk. It is meant to be called once at startup.
func SetFailedSubmissionStorage(enabled bool, baseDir string) {
	if enabled {
		storage = &failedSubmissionStorage{
			enabled: true,
			baseDir: baseDir,
		}
		slog.Debug(fmt.Sprintf("Failed submission storage enabled: dir=%s", baseDir))
	} else {
		storage = nil
	}
}

// SaveFailedSubmission writes tx and the failure to disk if storage is
// enabled. chain may be nil. Errors are logged, never returned.
func SaveFailedSubmission(ctx context.Context, chain ChainReader, tx *UnsignedTransaction, subErr *SubmissionError) {
	if storage == nil || !storage.enabled {
		return
	}

	record := FailedSubmission{
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Error: ErrorInfo{
			Message: subErr.Error(),
			State:   subErr.State.String(),
		},
		Network:     gatherNetworkState(ctx, chain),
		Transaction: extractTransactionInfo(tx),
	}
	if subErr.TxHash != (common.Hash{}) {
		record.Error.TxHash = subErr.TxHash.Hex()
	}

	path, err := saveToFile(storage.baseDir, record, tx.Nonce())
	if err != nil {
		slog.Warn(fmt.Sprintf("Failed to save failed submission: %v", err))
		return
	}
	slog.Info(fmt.Sprintf("Saved failed submission: nonce=%s state=%s file=%s", tx.Nonce(), subErr.State, path))
}

func extractTransactionInfo(tx *UnsignedTransaction) TransactionInfo {
	t := tx.Tuple()
	info := TransactionInfo{
		TxType:                 tx.TxType(),
		From:                   tx.From().Hex(),
		To:                     tx.To().Hex(),
		Nonce:                  t.Nonce.String(),
		Value:                  t.Value.String(),
		GasLimit:               t.GasLimit.String(),
		GasPerPubdataByteLimit: t.GasPerPubdataByteLimit.String(),
		MaxFeePerGas:           t.MaxFeePerGas.String(),
		MaxPriorityFeePerGas:   t.MaxPriorityFeePerGas.String(),
		Paymaster:              tx.Paymaster().Hex(),
		Reserved:               make([]string, 0, len(t.Reserved)),
		Data:                   hexutil.Encode(t.Data),
		Signature:              hexutil.Encode(t.Signature),
		FactoryDeps:            make([]string, 0, len(t.FactoryDeps)),
		PaymasterInput:         hexutil.Encode(t.PaymasterInput),
		ReservedDynamic:        hexutil.Encode(t.ReservedDynamic),
	}
	for _, r := range t.Reserved {
		info.Reserved = append(info.Reserved, r.String())
	}
	for _, dep := range t.FactoryDeps {
		info.FactoryDeps = append(info.FactoryDeps, hexutil.Encode(dep[:]))
	}
	return info
}

// LoadFailedSubmission reads a record written by SaveFailedSubmission.
func LoadFailedSubmission(path string) (*FailedSubmission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var record FailedSubmission
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &record, nil
}

// UnsignedTransaction rebuilds the recorded transaction with the same
// checks Build applies.
func (info TransactionInfo) UnsignedTransaction() (*UnsignedTransaction, error) {
	ints := make(map[string]*big.Int)
	for name, s := range map[string]string{
		"nonce":                  info.Nonce,
		"value":                  info.Value,
		"gasLimit":               info.GasLimit,
		"gasPerPubdataByteLimit": info.GasPerPubdataByteLimit,
		"maxFeePerGas":           info.MaxFeePerGas,
		"maxPriorityFeePerGas":   info.MaxPriorityFeePerGas,
	} {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q is not an integer", ErrOutOfRange, name, s)
		}
		ints[name] = v
	}
	data, err := hexutil.Decode(info.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	b, err := NewBuilder(Fees{
		GasLimit:               ints["gasLimit"],
		GasPerPubdataByteLimit: ints["gasPerPubdataByteLimit"],
		MaxFeePerGas:           ints["maxFeePerGas"],
		MaxPriorityFeePerGas:   ints["maxPriorityFeePerGas"],
	})
	if err != nil {
		return nil, err
	}
	tx, err := b.Build(info.TxType, info.From, info.To, ints["value"], ints["nonce"], data)
	if err != nil {
		return nil, err
	}

	if tx.tx.Paymaster, err = addressToInt(info.Paymaster); err != nil {
		return nil, err
	}
	if len(info.Reserved) != len(tx.tx.Reserved) {
		return nil, fmt.Errorf("%w: %d reserved slots", ErrOutOfRange, len(info.Reserved))
	}
	for i, s := range info.Reserved {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: reserved[%d] %q is not an integer", ErrOutOfRange, i, s)
		}
		if tx.tx.Reserved[i], err = toUint256("reserved", v); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		name string
		in   string
		out  *[]byte
	}{
		{"signature", info.Signature, &tx.tx.Signature},
		{"paymasterInput", info.PaymasterInput, &tx.tx.PaymasterInput},
		{"reservedDynamic", info.ReservedDynamic, &tx.tx.ReservedDynamic},
	} {
		if *f.out, err = hexutil.Decode(f.in); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	for i, dep := range info.FactoryDeps {
		raw, err := hexutil.Decode(dep)
		if err != nil || len(raw) != common.HashLength {
			return nil, fmt.Errorf("factoryDeps[%d]: %q is not a 32 byte hash", i, dep)
		}
		tx.tx.FactoryDeps = append(tx.tx.FactoryDeps, common.BytesToHash(raw))
	}
	return tx, nil
}

// gatherNetworkState fetches current network state
func gatherNetworkState(ctx context.Context, chain ChainReader) NetworkState {
	state := NetworkState{}
	if chain == nil {
		return state
	}

	if chainID, err := chain.ChainID(ctx); err == nil {
		state.ChainID = fmt.Sprintf("0x%x", chainID)
	}

	if header, err := chain.HeaderByNumber(ctx, nil); err == nil {
		state.BlockNumber = header.Number.Uint64()
		if header.BaseFee != nil {
			state.BaseFee = header.BaseFee.String()
		}
	}
	return state
}

// saveToFile writes the record under baseDir/YYYY-MM-DD/<state>/ and
// returns the file path.
func saveToFile(baseDir string, record FailedSubmission, nonce *big.Int) (string, error) {
	dateStr := record.Timestamp.Format("2006-01-02")
	dir := filepath.Join(baseDir, dateStr, record.Error.State)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	timeStr := record.Timestamp.Format("150405")
	filename := fmt.Sprintf("submission_%s_nonce_%s.json", timeStr, nonce)
	path := filepath.Join(dir, filename)

	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write atomically: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonBytes, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return path, nil
}
