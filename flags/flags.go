package flags

import "github.com/urfave/cli/v2"

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML config file",
	}

	EnvFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "Dotenv file to load before reading the environment",
		Value: ".env",
	}

	SkFlag = &cli.StringFlag{
		Name:    "sk",
		Usage:   "Secret key of the wallet sending the transaction",
		EnvVars: []string{"WALLET_PRIVATE_KEY"},
	}

	RpcFlag = &cli.StringFlag{
		Name:  "rpc",
		Usage: "RPC provider (overrides rpc_url)",
	}

	ArtifactsFlag = &cli.StringFlag{
		Name:  "artifacts",
		Usage: "Artifacts directory (overrides artifacts_dir)",
	}

	AccountFlag = &cli.StringFlag{
		Name:  "account",
		Usage: "Address of the smart-contract account (overrides account_address)",
	}

	NonceHolderFlag = &cli.StringFlag{
		Name:  "nonce-holder",
		Usage: "Address of the nonce holder contract (overrides nonce_holder_address)",
	}

	ToFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "Destination of the account transaction",
		Required: true,
	}

	ValueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Value in wei transferred by the account transaction",
		Value: "0",
	}

	DataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "Hex encoded call data of the account transaction",
		Value: "0x",
	}

	DryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Build and print the transaction without sending it",
	}

	ConfirmTimeoutFlag = &cli.DurationFlag{
		Name:  "confirm-timeout",
		Usage: "How long to wait for the transaction to be mined (overrides confirm_timeout)",
	}

	GasMultiplierFlag = &cli.Float64Flag{
		Name:  "gas-multiplier",
		Usage: "Multiplier for gas estimation (e.g., 1.2 for 20% buffer)",
	}

	SaveFailedFlag = &cli.BoolFlag{
		Name:  "save-failed",
		Usage: "Save failed submissions to disk for later analysis",
	}

	OfflineFlag = &cli.BoolFlag{
		Name:  "offline",
		Usage: "Only print the record, do not query the node",
	}

	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Aliases: []string{"l"},
		Usage:   "Set log level (debug, info, warn, error)",
		Value:   "info",
	}

	GlobalFlags = []cli.Flag{
		ConfigFlag,
		EnvFileFlag,
		SkFlag,
		RpcFlag,
		ArtifactsFlag,
		AccountFlag,
		NonceHolderFlag,
		LogLevelFlag,
	}

	ExecuteFlags = []cli.Flag{
		ToFlag,
		ValueFlag,
		DataFlag,
		DryRunFlag,
		ConfirmTimeoutFlag,
		GasMultiplierFlag,
		SaveFailedFlag,
	}

	InspectFlags = []cli.Flag{
		OfflineFlag,
	}
)
