package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	zkaa "github.com/zkminimal/zkaa-tx"
	"github.com/zkminimal/zkaa-tx/artifact"
	"github.com/zkminimal/zkaa-tx/config"
	"github.com/zkminimal/zkaa-tx/flags"
	"github.com/zkminimal/zkaa-tx/helper"
)

func main() {
	app := &cli.App{
		Name:   "zkaa",
		Usage:  "Submit transactions through a zkSync smart-contract account",
		Flags:  flags.GlobalFlags,
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "execute",
				Usage:  "Build a transaction with the account's current nonce and run it through executeTransaction",
				Flags:  flags.ExecuteFlags,
				Action: runExecute,
			},
			{
				Name:   "nonce",
				Usage:  "Print the account's minimum nonce",
				Action: runNonce,
			},
			{
				Name:      "inspect",
				Usage:     "Show a saved failed submission and compare it with the chain",
				ArgsUsage: "<json-file>",
				Flags:     flags.InspectFlags,
				Action:    runInspect,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	level, err := parseLogLevel(c.String(flags.LogLevelFlag.Name))
	if err != nil {
		return err
	}
	handler := zkaa.NewCompactHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	if err := godotenv.Load(c.String(flags.EnvFileFlag.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// loadConfig merges the config file, if any, with command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flags.ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if c.IsSet(flags.RpcFlag.Name) {
		cfg.RpcUrl = c.String(flags.RpcFlag.Name)
	}
	if c.IsSet(flags.ArtifactsFlag.Name) {
		cfg.ArtifactsDir = c.String(flags.ArtifactsFlag.Name)
	}
	if c.IsSet(flags.AccountFlag.Name) {
		cfg.AccountAddress = c.String(flags.AccountFlag.Name)
	}
	if c.IsSet(flags.NonceHolderFlag.Name) {
		cfg.NonceHolderAddress = c.String(flags.NonceHolderFlag.Name)
	}
	if c.IsSet(flags.ConfirmTimeoutFlag.Name) {
		cfg.ConfirmTimeout = config.Duration{Duration: c.Duration(flags.ConfirmTimeoutFlag.Name)}
	}
	if c.IsSet(flags.GasMultiplierFlag.Name) {
		cfg.GasMultiplier = c.Float64(flags.GasMultiplierFlag.Name)
	}
	if c.IsSet(flags.SaveFailedFlag.Name) {
		cfg.SaveFailed = c.Bool(flags.SaveFailedFlag.Name)
	}
	return cfg, nil
}

// session is everything a command needs once the wallet is connected.
type session struct {
	cfg     config.Config
	wallet  *helper.Wallet
	account *zkaa.BoundContract
	nonces  *zkaa.NonceHolder
}

func connect(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	accountArtifact, err := artifact.Resolve(cfg.ArtifactsDir, cfg.AccountArtifact)
	if err != nil {
		return nil, err
	}
	nonceHolderArtifact, err := artifact.Resolve(cfg.ArtifactsDir, cfg.NonceHolderArtifact)
	if err != nil {
		return nil, err
	}

	sk := c.String(flags.SkFlag.Name)
	if sk == "" {
		// The env file is only loaded after flags were parsed.
		sk = os.Getenv("WALLET_PRIVATE_KEY")
	}
	wallet, err := helper.GetWallet(c.Context, cfg.RpcUrl, sk)
	if err != nil {
		return nil, err
	}

	opts := zkaa.BoundContractOpts{GasMultiplier: cfg.GasMultiplier}
	return &session{
		cfg:     cfg,
		wallet:  wallet,
		account: zkaa.NewBoundContract(common.HexToAddress(cfg.AccountAddress), accountArtifact.ABI, wallet.Client, wallet.Signer, opts),
		nonces: zkaa.NewNonceHolder(
			zkaa.NewBoundContract(common.HexToAddress(cfg.NonceHolderAddress), nonceHolderArtifact.ABI, wallet.Client, nil, opts),
			nil,
		),
	}, nil
}

func runNonce(c *cli.Context) error {
	s, err := connect(c)
	if err != nil {
		return err
	}
	defer s.wallet.Close()

	nonce, err := s.nonces.GetMinNonce(c.Context, s.account.Address())
	if err != nil {
		return err
	}
	fmt.Println(nonce)
	return nil
}

func runExecute(c *cli.Context) error {
	value, ok := new(big.Int).SetString(c.String(flags.ValueFlag.Name), 10)
	if !ok {
		return fmt.Errorf("invalid --value %q", c.String(flags.ValueFlag.Name))
	}
	data, err := hexutil.Decode(c.String(flags.DataFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --data: %w", err)
	}

	s, err := connect(c)
	if err != nil {
		return err
	}
	defer s.wallet.Close()
	slog.Info(fmt.Sprintf("Running script to interact with contract %s", s.account.Address().Hex()))

	fees, err := s.cfg.Fees.ToFees()
	if err != nil {
		return err
	}
	if fees, err = zkaa.SuggestFees(c.Context, s.wallet.Client, fees); err != nil {
		return err
	}
	builder, err := zkaa.NewBuilder(fees)
	if err != nil {
		return err
	}

	zkaa.SetFailedSubmissionStorage(s.cfg.SaveFailed, s.cfg.FailedDir)
	account := zkaa.NewAccount(s.account, s.nonces, builder, zkaa.NewSubmitter(s.cfg.ConfirmTimeout.Duration, nil), zkaa.AccountOpts{
		TxType: s.cfg.TxType,
		Chain:  s.wallet.Client,
	})
	req := zkaa.ExecuteRequest{
		To:    c.String(flags.ToFlag.Name),
		Value: value,
		Data:  data,
	}

	if c.Bool(flags.DryRunFlag.Name) {
		tx, err := account.Prepare(c.Context, req)
		if err != nil {
			return err
		}
		fmt.Println(zkaa.FormatTransactionDetails(tx))
		return nil
	}

	tx, receipt, err := account.Execute(c.Context, req)
	if tx != nil {
		fmt.Println(zkaa.FormatTransactionDetails(tx))
	}
	if receipt != nil {
		fmt.Println(zkaa.FormatReceipt(receipt))
	}
	return err
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: %s inspect <json-file>", c.App.Name)
	}
	path := c.Args().First()
	slog.Info(fmt.Sprintf("Reading failed submission from: %s", path))
	record, err := zkaa.LoadFailedSubmission(path)
	if err != nil {
		return err
	}
	tx, err := record.Transaction.UnsignedTransaction()
	if err != nil {
		return fmt.Errorf("rebuild transaction: %w", err)
	}
	fmt.Println(zkaa.FormatTransactionDetails(tx))

	fmt.Println("\n=== Inspect Summary ===")
	fmt.Printf("File:            %s\n", path)
	fmt.Printf("Saved:           %s\n", record.Timestamp.Format(time.RFC3339))
	fmt.Printf("State:           %s\n", record.Error.State)
	fmt.Printf("Original Error:  %s\n", record.Error.Message)
	if c.Bool(flags.OfflineFlag.Name) {
		return nil
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.AccountAddress = tx.From().Hex()
	if err := cfg.Validate(); err != nil {
		return err
	}
	nonceHolderArtifact, err := artifact.Resolve(cfg.ArtifactsDir, cfg.NonceHolderArtifact)
	if err != nil {
		return err
	}
	client, err := helper.Dial(c.Context, cfg.RpcUrl)
	if err != nil {
		return err
	}
	defer client.Close()

	nonces := zkaa.NewNonceHolder(zkaa.NewBoundContract(common.HexToAddress(cfg.NonceHolderAddress), nonceHolderArtifact.ABI, client, nil, zkaa.BoundContractOpts{}), nil)
	current, err := nonces.GetMinNonce(c.Context, tx.From())
	if err != nil {
		return err
	}
	fmt.Printf("Current Nonce:   %s (%s)\n", current, describeNonce(tx.Nonce(), current))

	if record.Error.TxHash != "" {
		receipt, err := client.TransactionReceipt(c.Context, common.HexToHash(record.Error.TxHash))
		switch {
		case err == nil:
			fmt.Printf("Receipt:         status=%d block=%v gasUsed=%d\n", receipt.Status, receipt.BlockNumber, receipt.GasUsed)
		case errors.Is(err, ethereum.NotFound):
			fmt.Printf("Receipt:         not mined\n")
		default:
			fmt.Printf("Receipt:         FAILED - %v\n", err)
		}
	}
	return nil
}

// describeNonce says how a recorded nonce relates to the account's current one.
func describeNonce(recorded, current *big.Int) string {
	switch recorded.Cmp(current) {
	case -1:
		return "recorded nonce was used since"
	case 0:
		return "recorded nonce is still unused"
	default:
		return "recorded nonce is ahead of the chain"
	}
}
