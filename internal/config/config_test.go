package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IOTA_NETWORK", "")
	t.Setenv("NETWORKS_FILE", "")
	t.Setenv("JOURNAL_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network.Name)
	assert.Equal(t, "https://api.testnet.iota.cafe", cfg.Network.RpcUrl)
	assert.Equal(t, "0x3df62b6a415e4668ef5b35a71e78c4c75a08a1cc40f6da4453a56a60e3f32a71", cfg.Network.FundId)
	assert.Equal(t, 30*time.Second, cfg.Network.RpcTimeout)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, time.Second, cfg.Sync.RefreshDelay)
	assert.Equal(t, 30*time.Second, cfg.Sync.PendingTTL)
	assert.Equal(t, 8*time.Second, cfg.Tracker.NotificationTTL)
	assert.Equal(t, JournalSqlite, cfg.Journal.Backend)
	assert.Equal(t, "calls.db", cfg.Database.Path)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("IOTA_FUND_ID", "0xfund")
	t.Setenv("SYNC_POLL_INTERVAL", "250ms")
	t.Setenv("JOURNAL_BACKEND", "Formance")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0xfund", cfg.Network.FundId)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.PollInterval)
	assert.Equal(t, JournalFormance, cfg.Journal.Backend)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("FINALITY_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "FINALITY_TIMEOUT")
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("JOURNAL_BACKEND", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "JOURNAL_BACKEND")
}

func TestLoad_UnknownNetworkNeedsOverrides(t *testing.T) {
	t.Setenv("IOTA_NETWORK", "devnet")

	_, err := Load()
	assert.ErrorContains(t, err, "devnet")

	t.Setenv("IOTA_RPC_URL", "http://localhost:9000")
	t.Setenv("IOTA_PACKAGE_ID", "0xpkg")
	t.Setenv("IOTA_FUND_ID", "0xfund")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "devnet", cfg.Network.Name)
	assert.Equal(t, "", cfg.Network.ExplorerUrl)
}

func TestLoadNetworks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	content := `networks:
  localnet:
    rpc_url: http://127.0.0.1:9000
    explorer_url: http://127.0.0.1:3000
    package_id: "0x1"
    fund_id: "0x2"
    admin_cap_id: "0x3"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	networks, err := LoadNetworks(path)
	require.NoError(t, err)
	require.Contains(t, networks, "localnet")
	assert.Equal(t, "0x2", networks["localnet"].FundId)

	t.Setenv("NETWORKS_FILE", path)
	t.Setenv("IOTA_NETWORK", "localnet")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Network.RpcUrl)
	assert.Equal(t, "0x3", cfg.Network.AdminCapId)
	assert.Equal(t, path, cfg.Network.NetworksFile)
}

func TestLoadNetworks_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadNetworks(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("networks: {}\n"), 0o600))
	_, err = LoadNetworks(empty)
	assert.ErrorContains(t, err, "no networks")

	noRpc := filepath.Join(dir, "norpc.yaml")
	require.NoError(t, os.WriteFile(noRpc, []byte("networks:\n  x:\n    fund_id: \"0x2\"\n"), 0o600))
	_, err = LoadNetworks(noRpc)
	assert.ErrorContains(t, err, "rpc_url")
}
