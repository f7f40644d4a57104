package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypertd/hyperhook/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndValidation(t *testing.T) {
	path := writeConfig(t, `
exchange:
  private_key: "0xabc123"
  account_address: "0xf00"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.hyperliquid.xyz", cfg.Exchange.APIURL)
	assert.Equal(t, 5.0, cfg.Trading.PremiumBps)
	assert.Equal(t, 1, cfg.Trading.DefaultLeverage)
	assert.Equal(t, 6487, cfg.Server.Port)
	assert.Equal(t, int64(65536), cfg.Server.MaxPayloadBytes)
	assert.Len(t, cfg.Server.WebhookIPs, 4)
	assert.Equal(t, "hyperhook.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_RejectsMissingKeyMaterial(t *testing.T) {
	path := writeConfig(t, `
trading:
  premium_bps: 5
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key")
}

func TestLoad_RejectsPremiumOutOfRange(t *testing.T) {
	path := writeConfig(t, `
exchange:
  private_key: "0xabc"
  account_address: "0xf00"
trading:
  premium_bps: 900
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "premium_bps")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HYPERHOOK_PRIVATE_KEY", "0xenvkey")
	t.Setenv("HYPERHOOK_PREMIUM_BPS", "12")

	path := writeConfig(t, `
exchange:
  private_key: "0xfilekey"
  account_address: "0xf00"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0xenvkey", cfg.Exchange.PrivateKey)
	assert.Equal(t, 12.0, cfg.Trading.PremiumBps)
}

func TestLoad_TelegramRequiresToken(t *testing.T) {
	path := writeConfig(t, `
exchange:
  private_key: "0xabc"
  account_address: "0xf00"
telegram:
  enabled: true
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}
