package zkaa

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// EIP712TxType is the transaction type zkSync assigns to transactions
	// validated by a custom account.
	EIP712TxType = 113

	DefaultGasLimit               = 16_777_216
	DefaultGasPerPubdataByteLimit = 50_000
	DefaultMaxFeePerGas           = 250_000_000
)

// Fees holds the resource bounds copied into every built transaction.
type Fees struct {
	GasLimit               *big.Int
	GasPerPubdataByteLimit *big.Int
	MaxFeePerGas           *big.Int
	MaxPriorityFeePerGas   *big.Int
}

// DefaultFees returns the bounds used when the caller supplies none.
func DefaultFees() Fees {
	return Fees{
		GasLimit:               big.NewInt(DefaultGasLimit),
		GasPerPubdataByteLimit: big.NewInt(DefaultGasPerPubdataByteLimit),
		MaxFeePerGas:           big.NewInt(DefaultMaxFeePerGas),
		MaxPriorityFeePerGas:   big.NewInt(0),
	}
}

// Transaction mirrors the Transaction tuple accepted by account contracts.
// Field order, names and types follow the ABI so it can be packed directly.
type Transaction struct {
	TxType                 *big.Int
	From                   *big.Int
	To                     *big.Int
	GasLimit               *big.Int
	GasPerPubdataByteLimit *big.Int
	MaxFeePerGas           *big.Int
	MaxPriorityFeePerGas   *big.Int
	Paymaster              *big.Int
	Nonce                  *big.Int
	Value                  *big.Int
	Reserved               [4]*big.Int
	Data                   []byte
	Signature              []byte
	FactoryDeps            [][32]byte
	PaymasterInput         []byte
	ReservedDynamic        []byte
}

// UnsignedTransaction is an account abstraction transaction before the
// account attaches a signature. It cannot be modified once built; all
// accessors return copies.
type UnsignedTransaction struct {
	tx Transaction
}

func (u *UnsignedTransaction) TxType() uint64                   { return u.tx.TxType.Uint64() }
func (u *UnsignedTransaction) From() common.Address             { return common.BigToAddress(u.tx.From) }
func (u *UnsignedTransaction) To() common.Address               { return common.BigToAddress(u.tx.To) }
func (u *UnsignedTransaction) Paymaster() common.Address        { return common.BigToAddress(u.tx.Paymaster) }
func (u *UnsignedTransaction) Nonce() *big.Int                  { return new(big.Int).Set(u.tx.Nonce) }
func (u *UnsignedTransaction) Value() *big.Int                  { return new(big.Int).Set(u.tx.Value) }
func (u *UnsignedTransaction) GasLimit() *big.Int               { return new(big.Int).Set(u.tx.GasLimit) }
func (u *UnsignedTransaction) GasPerPubdataByteLimit() *big.Int { return new(big.Int).Set(u.tx.GasPerPubdataByteLimit) }
func (u *UnsignedTransaction) MaxFeePerGas() *big.Int           { return new(big.Int).Set(u.tx.MaxFeePerGas) }
func (u *UnsignedTransaction) MaxPriorityFeePerGas() *big.Int   { return new(big.Int).Set(u.tx.MaxPriorityFeePerGas) }
func (u *UnsignedTransaction) Data() []byte                     { return common.CopyBytes(u.tx.Data) }
func (u *UnsignedTransaction) Signature() []byte                { return common.CopyBytes(u.tx.Signature) }
func (u *UnsignedTransaction) PaymasterInput() []byte           { return common.CopyBytes(u.tx.PaymasterInput) }
func (u *UnsignedTransaction) ReservedDynamic() []byte          { return common.CopyBytes(u.tx.ReservedDynamic) }

func (u *UnsignedTransaction) Reserved() [4]*big.Int {
	var r [4]*big.Int
	for i, v := range u.tx.Reserved {
		r[i] = new(big.Int).Set(v)
	}
	return r
}

func (u *UnsignedTransaction) FactoryDeps() [][32]byte {
	deps := make([][32]byte, len(u.tx.FactoryDeps))
	copy(deps, u.tx.FactoryDeps)
	return deps
}

// Tuple returns a fresh copy of the transaction in its ABI shape.
func (u *UnsignedTransaction) Tuple() Transaction {
	return Transaction{
		TxType:                 new(big.Int).Set(u.tx.TxType),
		From:                   new(big.Int).Set(u.tx.From),
		To:                     new(big.Int).Set(u.tx.To),
		GasLimit:               u.GasLimit(),
		GasPerPubdataByteLimit: u.GasPerPubdataByteLimit(),
		MaxFeePerGas:           u.MaxFeePerGas(),
		MaxPriorityFeePerGas:   u.MaxPriorityFeePerGas(),
		Paymaster:              new(big.Int).Set(u.tx.Paymaster),
		Nonce:                  u.Nonce(),
		Value:                  u.Value(),
		Reserved:               u.Reserved(),
		Data:                   u.Data(),
		Signature:              u.Signature(),
		FactoryDeps:            u.FactoryDeps(),
		PaymasterInput:         u.PaymasterInput(),
		ReservedDynamic:        u.ReservedDynamic(),
	}
}

// Builder assembles unsigned transactions with a fixed set of fee bounds.
type Builder struct {
	fees Fees
}

// NewBuilder checks the fee bounds once so Build only validates its own inputs.
func NewBuilder(fees Fees) (*Builder, error) {
	checked := Fees{}
	var err error
	if checked.GasLimit, err = toUint256("gasLimit", fees.GasLimit); err != nil {
		return nil, err
	}
	if checked.GasPerPubdataByteLimit, err = toUint256("gasPerPubdataByteLimit", fees.GasPerPubdataByteLimit); err != nil {
		return nil, err
	}
	if checked.MaxFeePerGas, err = toUint256("maxFeePerGas", fees.MaxFeePerGas); err != nil {
		return nil, err
	}
	if checked.MaxPriorityFeePerGas, err = toUint256("maxPriorityFeePerGas", fees.MaxPriorityFeePerGas); err != nil {
		return nil, err
	}
	return &Builder{fees: checked}, nil
}

// Build creates an unsigned transaction from the given inputs. The
// addresses are hex strings and are stored in their 256-bit integer form.
// All fields not passed in take their empty defaults: no signature, no
// factory dependencies, no paymaster and zeroed reserved slots.
func (b *Builder) Build(txType uint64, from, to string, value, nonce *big.Int, data []byte) (*UnsignedTransaction, error) {
	fromInt, err := addressToInt(from)
	if err != nil {
		return nil, err
	}
	toInt, err := addressToInt(to)
	if err != nil {
		return nil, err
	}
	v, err := toUint256("value", value)
	if err != nil {
		return nil, err
	}
	n, err := toUint256("nonce", nonce)
	if err != nil {
		return nil, err
	}

	var reserved [4]*big.Int
	for i := range reserved {
		reserved[i] = new(big.Int)
	}
	return &UnsignedTransaction{tx: Transaction{
		TxType:                 new(big.Int).SetUint64(txType),
		From:                   fromInt,
		To:                     toInt,
		GasLimit:               new(big.Int).Set(b.fees.GasLimit),
		GasPerPubdataByteLimit: new(big.Int).Set(b.fees.GasPerPubdataByteLimit),
		MaxFeePerGas:           new(big.Int).Set(b.fees.MaxFeePerGas),
		MaxPriorityFeePerGas:   new(big.Int).Set(b.fees.MaxPriorityFeePerGas),
		Paymaster:              new(big.Int),
		Nonce:                  n,
		Value:                  v,
		Reserved:               reserved,
		Data:                   append([]byte{}, data...),
		Signature:              []byte{},
		FactoryDeps:            [][32]byte{},
		PaymasterInput:         []byte{},
		ReservedDynamic:        []byte{},
	}}, nil
}

// BuildTransaction builds with DefaultFees.
func BuildTransaction(txType uint64, from, to string, value, nonce *big.Int, data []byte) (*UnsignedTransaction, error) {
	b, err := NewBuilder(DefaultFees())
	if err != nil {
		return nil, err
	}
	return b.Build(txType, from, to, value, nonce, data)
}

func addressToInt(s string) (*big.Int, error) {
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return new(big.Int).SetBytes(common.HexToAddress(s).Bytes()), nil
}

// toUint256 returns a copy of v after checking it fits the uint256 domain.
func toUint256(name string, v *big.Int) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %s is missing", ErrOutOfRange, name)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative (%s)", ErrOutOfRange, name, v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrOutOfRange, name)
	}
	return u.ToBig(), nil
}
