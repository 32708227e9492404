package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	zkaa "github.com/zkminimal/zkaa-tx"
)

var ErrInvalidConfig = errors.New("invalid config")

// Duration lets TOML files use strings such as "90s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Fees struct {
	GasLimit               uint64 `toml:"gas_limit"`
	GasPerPubdataByteLimit uint64 `toml:"gas_per_pubdata_byte_limit"`
	// Decimal wei amounts. Left empty they are asked from the node.
	MaxFeePerGas         string `toml:"max_fee_per_gas"`
	MaxPriorityFeePerGas string `toml:"max_priority_fee_per_gas"`
}

type Config struct {
	RpcUrl string `toml:"rpc_url"`

	ArtifactsDir        string `toml:"artifacts_dir"`
	AccountArtifact     string `toml:"account_artifact"`
	NonceHolderArtifact string `toml:"nonce_holder_artifact"`

	AccountAddress     string `toml:"account_address"`
	NonceHolderAddress string `toml:"nonce_holder_address"`

	TxType         uint64   `toml:"tx_type"`
	Fees           Fees     `toml:"fees"`
	GasMultiplier  float64  `toml:"gas_multiplier"`
	ConfirmTimeout Duration `toml:"confirm_timeout"`

	SaveFailed bool   `toml:"save_failed"`
	FailedDir  string `toml:"failed_dir"`
}

func Default() Config {
	return Config{
		RpcUrl:              "http://127.0.0.1:8011",
		ArtifactsDir:        "artifacts-zk",
		AccountArtifact:     "ZkMinimalAccount",
		NonceHolderArtifact: "INonceHolder",
		NonceHolderAddress:  zkaa.NonceHolderAddress.Hex(),
		TxType:              zkaa.EIP712TxType,
		Fees: Fees{
			GasLimit:               zkaa.DefaultGasLimit,
			GasPerPubdataByteLimit: zkaa.DefaultGasPerPubdataByteLimit,
		},
		GasMultiplier:  1.0,
		ConfirmTimeout: Duration{zkaa.DefaultConfirmTimeout},
		FailedDir:      "failed_submissions",
	}
}

// Load reads path on top of Default. Unknown keys are rejected so that
// typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RpcUrl == "" {
		return fmt.Errorf("%w: rpc_url is empty", ErrInvalidConfig)
	}
	if !common.IsHexAddress(c.AccountAddress) {
		return fmt.Errorf("%w: account_address %q is not an address", ErrInvalidConfig, c.AccountAddress)
	}
	if !common.IsHexAddress(c.NonceHolderAddress) {
		return fmt.Errorf("%w: nonce_holder_address %q is not an address", ErrInvalidConfig, c.NonceHolderAddress)
	}
	if c.AccountArtifact == "" || c.NonceHolderArtifact == "" {
		return fmt.Errorf("%w: both account_artifact and nonce_holder_artifact are required", ErrInvalidConfig)
	}
	if c.GasMultiplier < 0 {
		return fmt.Errorf("%w: gas_multiplier is negative", ErrInvalidConfig)
	}
	if c.ConfirmTimeout.Duration <= 0 {
		return fmt.Errorf("%w: confirm_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := c.Fees.ToFees(); err != nil {
		return err
	}
	return nil
}

// ToFees converts the configured fees. Fee caps left empty are nil so
// zkaa.SuggestFees can fill them.
func (f Fees) ToFees() (zkaa.Fees, error) {
	fees := zkaa.Fees{
		GasLimit:               new(big.Int).SetUint64(f.GasLimit),
		GasPerPubdataByteLimit: new(big.Int).SetUint64(f.GasPerPubdataByteLimit),
	}
	var err error
	if fees.MaxFeePerGas, err = parseWei("max_fee_per_gas", f.MaxFeePerGas); err != nil {
		return zkaa.Fees{}, err
	}
	if fees.MaxPriorityFeePerGas, err = parseWei("max_priority_fee_per_gas", f.MaxPriorityFeePerGas); err != nil {
		return zkaa.Fees{}, err
	}
	return fees, nil
}

func parseWei(key, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s %q is not a non-negative integer", ErrInvalidConfig, key, s)
	}
	return v, nil
}
