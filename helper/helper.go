package helper

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// KeyedSigner hands out transact options signed by a private key.
type KeyedSigner struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

func NewKeyedSigner(key *ecdsa.PrivateKey, chainID *big.Int) *KeyedSigner {
	return &KeyedSigner{key: key, chainID: new(big.Int).Set(chainID)}
}

func (s *KeyedSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// TransactOpts returns fresh options for a single transaction. The nonce
// and fees of the outer transaction are left for bind to fill in.
func (s *KeyedSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("creating keyed transactor with chain ID: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Wallet is a signer bound to a network connection.
type Wallet struct {
	Client *ethclient.Client
	Signer *KeyedSigner
}

func (w *Wallet) Close() {
	w.Client.Close()
}

// GetWallet dials rpcURL and binds the secret key sk (hex, 0x optional) to
// the chain the node reports.
func GetWallet(ctx context.Context, rpcURL, sk string) (*Wallet, error) {
	key, err := ParseKey(sk)
	if err != nil {
		return nil, err
	}
	backend, err := Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	chainID, err := GetChainID(ctx, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	signer := NewKeyedSigner(key, chainID)
	slog.Debug(fmt.Sprintf("Wallet %s on chain %s via %s", signer.Address().Hex(), chainID, rpcURL))
	return &Wallet{Client: backend, Signer: signer}, nil
}

// Dial connects to rpcURL without a signer.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	cl, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return ethclient.NewClient(cl), nil
}

// ParseKey decodes a hex encoded secp256k1 private key.
func ParseKey(sk string) (*ecdsa.PrivateKey, error) {
	if sk == "" {
		return nil, fmt.Errorf("no private key given")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(sk, "0x"))
	if err != nil {
		return nil, fmt.Errorf("converting private key hex to ECDSA: %w", err)
	}
	return key, nil
}

// GetChainID asks the node for its chain id.
func GetChainID(ctx context.Context, backend *ethclient.Client) (*big.Int, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve chain ID: %w", err)
	}
	return chainID, nil
}
