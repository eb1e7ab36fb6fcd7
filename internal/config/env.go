package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/common"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

const (
	FundingModeNone    = "none"
	FundingModeAirdrop = "airdrop"
)

// Config contains all configuration parameters for the application.
// Note: user secrets are never part of the configuration; they arrive per request.
type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	WalletFilePath string `envconfig:"WALLET_FILE_PATH" default:"wallet.fwr"`

	BackendURL     string        `envconfig:"BACKEND_URL" required:"true"`
	BackendToken   string        `envconfig:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`

	SolanaRPCURL        string        `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"1s"`

	// FundingMode decides what happens when the fee payer is below MinBalanceLamports.
	// "none" fails the flow; "airdrop" asks the cluster faucet (test clusters only).
	FundingMode        string `envconfig:"FUNDING_MODE" default:"none"`
	MinBalanceLamports uint64 `envconfig:"MIN_BALANCE_LAMPORTS" default:"10000000"`
	AirdropLamports    uint64 `envconfig:"AIRDROP_LAMPORTS" default:"1000000000"`

	FeeAmount      string `envconfig:"FEE_AMOUNT" default:"20"`
	TokenDecimals  uint8  `envconfig:"TOKEN_DECIMALS" default:"6"`
	EncryptionSalt string `envconfig:"ENCRYPTION_SALT" default:"flow-wallet/record/v1"`
}

// MigrateConfig is the configuration of the legacy wallet migration tool. It
// shares variable names with Config so both tools agree on the salt and the
// record file.
type MigrateConfig struct {
	WalletFilePath string `envconfig:"WALLET_FILE_PATH" default:"wallet.fwr"`
	EncryptionSalt string `envconfig:"ENCRYPTION_SALT" default:"flow-wallet/record/v1"`
}

// LoadMigrate reads MigrateConfig from the environment.
func LoadMigrate() (*MigrateConfig, error) {
	c := &MigrateConfig{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if c.EncryptionSalt == "" {
		return nil, errors.New("ENCRYPTION_SALT cannot be empty")
	}
	return c, nil
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads and validates configuration without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("BACKEND_URL cannot be empty")
	}

	c.FundingMode = strings.ToLower(strings.TrimSpace(c.FundingMode))
	switch c.FundingMode {
	case FundingModeNone:
	case FundingModeAirdrop:
		if common.IsMainnetEndpoint(c.SolanaRPCURL) {
			return errors.New("FUNDING_MODE=airdrop is not allowed against mainnet")
		}
	default:
		return fmt.Errorf("unknown FUNDING_MODE %q: use %q or %q", c.FundingMode, FundingModeNone, FundingModeAirdrop)
	}

	if c.ConfirmTimeout <= 0 {
		return errors.New("CONFIRM_TIMEOUT must be positive")
	}
	if c.ConfirmPollInterval <= 0 || c.ConfirmPollInterval > c.ConfirmTimeout {
		return errors.New("CONFIRM_POLL_INTERVAL must be positive and not exceed CONFIRM_TIMEOUT")
	}
	if c.TokenDecimals > 18 {
		return fmt.Errorf("TOKEN_DECIMALS %d is out of range", c.TokenDecimals)
	}
	if c.EncryptionSalt == "" {
		return errors.New("ENCRYPTION_SALT cannot be empty")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetWalletFilePath returns path to the local wallet record file
func GetWalletFilePath() string {
	return Get().WalletFilePath
}

// GetSolanaRPCURL returns the default Solana RPC URL
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// PromptForSecret prompts the user for a wallet secret in the terminal.
// The secret is read without echoing (hidden input).
// Caller must zero the returned slice after use.
func PromptForSecret(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the tool interactively to enter the secret")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("secret cannot be empty")
	}
	return raw, nil
}
