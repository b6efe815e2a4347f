// Package config loads and saves the donutx settings file,
// ~/.donutx/config.json, with DONUTX_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	defaultNetwork     = "sepolia"
	defaultAlgorithm   = "fastest"
	defaultPollSeconds = 2
	defaultLogLevel    = "info"
	defaultDirName     = ".donutx"
	envPrefix          = "DONUTX"
	envConfigDir       = "DONUTX_CONFIG_DIR"
	configFile         = "config.json"
	walletsFile        = "wallets.json"
	logFile            = "donutx.log"
)

// ErrUnknownKey is returned by Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all donutx configuration.
type Config struct {
	Network            string              `json:"network"              mapstructure:"network"`
	DefaultWallet      string              `json:"default_wallet"       mapstructure:"default_wallet"`
	RPCAlgorithm       string              `json:"rpc_algorithm"        mapstructure:"rpc_algorithm"` // "fastest" | "failover"
	CustomRPCs         map[string][]string `json:"custom_rpcs"          mapstructure:"custom_rpcs"`
	ContractAddress    string              `json:"contract_address"     mapstructure:"contract_address"`
	GasLimit           uint64              `json:"gas_limit"            mapstructure:"gas_limit"`
	ReceiptPollSeconds int                 `json:"receipt_poll_seconds" mapstructure:"receipt_poll_seconds"`
	LogFile            string              `json:"log_file"             mapstructure:"log_file"`
	LogLevel           string              `json:"log_level"            mapstructure:"log_level"`

	// internal: config dir path used for Save()
	configDir string
}

// Keys lists the settings accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultDir returns $DONUTX_CONFIG_DIR, or ~/.donutx.
func DefaultDir() (string, error) {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// Load reads config from dir (or DefaultDir when empty), falling back to
// defaults for anything the file does not set. DONUTX_<KEY> environment
// variables override file values.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	vp := viper.New()
	vp.SetConfigFile(filepath.Join(dir, configFile))
	vp.SetConfigType("json")
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	setDefaults(vp)

	if err := vp.ReadInConfig(); err != nil && !notFound(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	return cfg, nil
}

func notFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("network", defaultNetwork)
	vp.SetDefault("default_wallet", "")
	vp.SetDefault("rpc_algorithm", defaultAlgorithm)
	vp.SetDefault("custom_rpcs", map[string][]string{})
	vp.SetDefault("contract_address", contract.VendingAddress)
	vp.SetDefault("gas_limit", contract.DefaultGasLimit)
	vp.SetDefault("receipt_poll_seconds", defaultPollSeconds)
	vp.SetDefault("log_file", "")
	vp.SetDefault("log_level", defaultLogLevel)
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set updates one setting from its string form.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

var setters = map[string]func(*Config, string) error{
	"network":        func(c *Config, v string) error { c.Network = v; return nil },
	"default_wallet": func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"rpc_algorithm": func(c *Config, v string) error {
		if v != "fastest" && v != "failover" {
			return fmt.Errorf("must be fastest or failover, got %q", v)
		}
		c.RPCAlgorithm = v
		return nil
	},
	"contract_address": func(c *Config, v string) error {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("invalid address %q", v)
		}
		c.ContractAddress = common.HexToAddress(v).Hex()
		return nil
	},
	"gas_limit": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("must be a positive integer, got %q", v)
		}
		c.GasLimit = n
		return nil
	},
	"receipt_poll_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("must be a positive integer, got %q", v)
		}
		c.ReceiptPollSeconds = n
		return nil
	},
	"log_file":  func(c *Config, v string) error { c.LogFile = v; return nil },
	"log_level": func(c *Config, v string) error { c.LogLevel = v; return nil },
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a network.
func (c *Config) GetRPCs(network string) []string {
	return c.CustomRPCs[network]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LogPath resolves the diagnostics log file. "default" means donutx.log in
// the config dir; empty disables file logging.
func (c *Config) LogPath() string {
	switch c.LogFile {
	case "":
		return ""
	case "default":
		return filepath.Join(c.configDir, logFile)
	}
	return c.LogFile
}
