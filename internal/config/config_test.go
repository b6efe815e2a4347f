package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/donutxpress/internal/config"
	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sepolia", cfg.Network)
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, contract.VendingAddress, cfg.ContractAddress)
	assert.Equal(t, contract.DefaultGasLimit, cfg.GasLimit)
	assert.Equal(t, 2, cfg.ReceiptPollSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.NotNil(t, cfg.CustomRPCs)
	assert.Equal(t, dir, cfg.Dir())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.Network = "local"
	cfg.DefaultWallet = "mywallet"
	cfg.RPCAlgorithm = "failover"
	cfg.GasLimit = 500_000
	require.NoError(t, cfg.AddRPC("local", "http://127.0.0.1:8545"))
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "local", reloaded.Network)
	assert.Equal(t, "mywallet", reloaded.DefaultWallet)
	assert.Equal(t, "failover", reloaded.RPCAlgorithm)
	assert.Equal(t, uint64(500_000), reloaded.GasLimit)
	assert.Equal(t, []string{"http://127.0.0.1:8545"}, reloaded.GetRPCs("local"))
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"network":"mainnet"}`), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, contract.DefaultGasLimit, cfg.GasLimit)
}

func TestMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{not json`), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"network":"mainnet"}`), 0o600))
	t.Setenv("DONUTX_NETWORK", "local")
	t.Setenv("DONUTX_GAS_LIMIT", "123456")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Network)
	assert.Equal(t, uint64(123456), cfg.GasLimit)
}

func TestDefaultDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DONUTX_CONFIG_DIR", dir)

	got, err := config.DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

func TestSet(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Set("network", "local"))
	require.NoError(t, cfg.Set("gas_limit", "250000"))
	require.NoError(t, cfg.Set("receipt_poll_seconds", "5"))
	require.NoError(t, cfg.Set("rpc_algorithm", "failover"))
	require.NoError(t, cfg.Set("contract_address", "0x06220b5b51337f0864d4a88c4d2de75de7033c4f"))

	assert.Equal(t, "local", cfg.Network)
	assert.Equal(t, uint64(250000), cfg.GasLimit)
	assert.Equal(t, 5, cfg.ReceiptPollSeconds)
	assert.Equal(t, "failover", cfg.RPCAlgorithm)
	assert.Equal(t, contract.VendingAddress, cfg.ContractAddress, "addresses are stored checksummed")
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	tests := []struct{ key, value string }{
		{"gas_limit", "lots"},
		{"gas_limit", "0"},
		{"receipt_poll_seconds", "-1"},
		{"rpc_algorithm", "round-robin"},
		{"contract_address", "0x123"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.Error(t, cfg.Set(tt.key, tt.value))
		})
	}
}

func TestSetUnknownKey(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Set("price_currency", "USD"), config.ErrUnknownKey)
}

func TestKeysSorted(t *testing.T) {
	keys := config.Keys()
	assert.Contains(t, keys, "network")
	assert.IsIncreasing(t, keys)
}

// ---------------------------------------------------------------------------
// RPCs / log path
// ---------------------------------------------------------------------------

func TestAddDuplicateRPCErrors(t *testing.T) {
	cfg, _ := config.Load(t.TempDir())

	require.NoError(t, cfg.AddRPC("sepolia", "https://rpc.example"))
	assert.Error(t, cfg.AddRPC("sepolia", "https://rpc.example"))
}

func TestRemoveCustomRPC(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg.AddRPC("sepolia", "https://rpc1") //nolint:errcheck
	cfg.AddRPC("sepolia", "https://rpc2") //nolint:errcheck

	require.NoError(t, cfg.RemoveRPC("sepolia", "https://rpc1"))
	assert.Equal(t, []string{"https://rpc2"}, cfg.GetRPCs("sepolia"))
	assert.Error(t, cfg.RemoveRPC("sepolia", "https://rpc1"))
}

func TestLogPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Empty(t, cfg.LogPath())

	cfg.LogFile = "default"
	assert.Equal(t, filepath.Join(dir, "donutx.log"), cfg.LogPath())

	cfg.LogFile = "/tmp/x.log"
	assert.Equal(t, "/tmp/x.log", cfg.LogPath())
}
