package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the desk and the proxy.
// Note: the keystore password is prompted at runtime and stored in memory - use GetWalletPasswordBytes()
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	ProxyPort string `envconfig:"PROXY_PORT" default:"3000"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	SolanaRPCURL     string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	SolanaCommitment string `envconfig:"SOLANA_COMMITMENT" default:"confirmed"`

	ProxyURL         string   `envconfig:"PROXY_URL" default:"http://localhost:3000"`
	AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	IPFSUpstreamURL  string   `envconfig:"IPFS_UPSTREAM_URL" default:"https://pump.fun/api/ipfs"`
	TradeUpstreamURL string   `envconfig:"TRADE_UPSTREAM_URL" default:"https://pumpportal.fun/api/trade-local"`
	JitoUpstreamURL  string   `envconfig:"JITO_UPSTREAM_URL" default:"https://mainnet.block-engine.jito.wtf/api/v1/bundles"`
	MaxBodyBytes     int64    `envconfig:"MAX_BODY_BYTES" default:"33554432"`

	WalletFilePath   string `envconfig:"WALLET_FILE_PATH" default:"wallets.cwt"`
	SettingsFilePath string `envconfig:"SETTINGS_FILE_PATH" default:"settings.yaml"`
	JournalDBPath    string `envconfig:"JOURNAL_DB_PATH" default:"journal.db"`

	AuthURL    string `envconfig:"AUTH_URL"`
	AuthAPIKey string `envconfig:"AUTH_API_KEY"`

	BalanceRefresh time.Duration `envconfig:"BALANCE_REFRESH" default:"10s"`
	ConfirmTimeout time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from the environment, reading .env first when present.
func Init() error {
	_ = godotenv.Load() // best-effort

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	cfg = c
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

// GetPort returns the desk API port
func GetPort() string {
	return Get().Port
}

// GetProxyPort returns the relay port
func GetProxyPort() string {
	return Get().ProxyPort
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetWalletFilePath returns path to the encrypted wallet keystore
func GetWalletFilePath() string {
	return Get().WalletFilePath
}

var passwordBytes []byte

// PromptForPassword prompts the user for the keystore password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter wallet password: ")
	if err != nil {
		return err
	}
	SetWalletPassword(raw)
	clear(raw)
	return nil
}

// ReadPassword reads one hidden line from the terminal.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}

// SetWalletPassword stores a copy of password in memory.
func SetWalletPassword(password []byte) {
	clear(passwordBytes)
	passwordBytes = make([]byte, len(password))
	copy(passwordBytes, password)
}

// GetWalletPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetWalletPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
