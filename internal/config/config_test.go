package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"INDEXER_RPC", "STARKNET_API_URL", "INDEXER_STORAGE", "DATABASE_URL", "INDEXER_BATCH_SIZE", "INDEXER_ADDRESS", "INDEXER_PENDING", "INDEXER_FROM"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "0.1.0", cfg.IndexerVersion)
	assert.Equal(t, "main", cfg.IndexerIdentifier)
	assert.Equal(t, "0", cfg.From)
	assert.Equal(t, "latest", cfg.To)
	assert.Equal(t, uint64(100), cfg.BatchSize)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 1, cfg.EventWorkers)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.False(t, cfg.RegisterMemecoinEvents)
	assert.False(t, cfg.Pending)
	assert.Nil(t, cfg.Addresses)
}

func TestLoadPendingAndFrom(t *testing.T) {
	clearEnv(t)
	t.Setenv("INDEXER_PENDING", "true")
	t.Setenv("INDEXER_FROM", "latest")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.Pending)
	assert.Equal(t, "latest", cfg.From)

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pending: true\nfrom: \"1200\"\n"), 0o644))
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Pending)
	assert.Equal(t, "1200", cfg.From)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STARKNET_API_URL", "http://node:9545")
	t.Setenv("DATABASE_URL", "postgres://localhost/tokens")
	t.Setenv("INDEXER_BATCH_SIZE", "25")
	t.Setenv("INDEXER_ADDRESS", "0x1, 0x2,")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://node:9545", cfg.RPCURL)
	assert.Equal(t, "postgres://localhost/tokens", cfg.Storage)
	assert.Equal(t, uint64(25), cfg.BatchSize)
	assert.Equal(t, []string{"0x1", "0x2"}, cfg.Addresses)

	t.Setenv("INDEXER_RPC", "http://primary:9545")
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://primary:9545", cfg.RPCURL)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INDEXER_BATCH_SIZE", "25")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("batch-size", 100, "")
	flags.Bool("force", false, "")
	flags.String("indexer-identifier", "main", "")
	require.NoError(t, flags.Parse([]string{"--batch-size=7", "--force"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.BatchSize)
	assert.True(t, cfg.Force)
	assert.Equal(t, "main", cfg.IndexerIdentifier)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	content := `rpc: http://file:9545
storage: sqlite://./tokens.db
event-workers: 4
known-contracts-only: true
address:
  - "0xabc"
  - "0xdef"
poll-interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://file:9545", cfg.RPCURL)
	assert.Equal(t, "sqlite://./tokens.db", cfg.Storage)
	assert.Equal(t, 4, cfg.EventWorkers)
	assert.True(t, cfg.KnownContractsOnly)
	assert.Equal(t, []string{"0xabc", "0xdef"}, cfg.Addresses)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc url is required")

	cfg.RPCURL = "http://node"
	require.NoError(t, cfg.Validate())

	cfg.BatchSize = 0
	cfg.EventWorkers = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch size")
	assert.Contains(t, err.Error(), "event workers")
}

func TestLoadDecode(t *testing.T) {
	clearEnv(t)
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--in=./raw.jsonl"}))

	cfg, err := LoadDecode("", flags)
	require.NoError(t, err)
	assert.Equal(t, "./raw.jsonl", cfg.In)
	assert.Equal(t, "./data/token_events.jsonl", cfg.Out)
	assert.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)
	assert.Equal(t, "other", cfg.ContractType)
}
