package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hypertd/hyperhook/internal/domain"
)

// Env variable names. The private key and webhook secret should come from the
// environment rather than the config file on anything that is not a dev box.
const (
	envPrivateKey    = "HYPERHOOK_PRIVATE_KEY"
	envAccountAddr   = "HYPERHOOK_ACCOUNT_ADDRESS"
	envWebhookSecret = "HYPERHOOK_WEBHOOK_SECRET"
	envTelegramToken = "HYPERHOOK_TELEGRAM_TOKEN"
	envAPIToken      = "HYPERHOOK_API_TOKEN"
	envPremiumBps    = "HYPERHOOK_PREMIUM_BPS"
)

// Default TradingView webhook source IPs, can be overridden in the config file.
var defaultWebhookIPs = []string{
	"52.89.214.238",
	"34.212.75.30",
	"54.218.53.128",
	"52.32.178.7",
}

type Config struct {
	Exchange struct {
		APIURL         string `yaml:"api_url"`
		WSURL          string `yaml:"ws_url"`
		AccountAddress string `yaml:"account_address"`
		PrivateKey     string `yaml:"private_key"`
		VaultAddress   string `yaml:"vault_address"`
		Subaccount     string `yaml:"subaccount"`
		Mainnet        bool   `yaml:"mainnet"`
	} `yaml:"exchange"`

	Trading struct {
		PremiumBps      float64 `yaml:"premium_bps"`
		DefaultLeverage int     `yaml:"default_leverage"`
	} `yaml:"trading"`

	Server struct {
		Port               int      `yaml:"port"`
		MaxPayloadBytes    int64    `yaml:"max_payload_bytes"`
		WebhookSecret      string   `yaml:"webhook_secret"`
		APIToken           string   `yaml:"api_token"`
		IPWhitelistEnabled bool     `yaml:"ip_whitelist_enabled"`
		TrustForwardedFor  bool     `yaml:"trust_forwarded_for"`
		WebhookIPs         []string `yaml:"webhook_ips"`
	} `yaml:"server"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the YAML config, applies env overrides and defaults, and
// validates the result. The returned struct is constructed once at process
// start and injected into every component that needs settings.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envPrivateKey); v != "" {
		c.Exchange.PrivateKey = v
	}
	if v := os.Getenv(envAccountAddr); v != "" {
		c.Exchange.AccountAddress = v
	}
	if v := os.Getenv(envWebhookSecret); v != "" {
		c.Server.WebhookSecret = v
	}
	if v := os.Getenv(envTelegramToken); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(envAPIToken); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv(envPremiumBps); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Trading.PremiumBps = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Exchange.APIURL == "" {
		c.Exchange.APIURL = "https://api.hyperliquid.xyz"
	}
	if c.Exchange.WSURL == "" {
		c.Exchange.WSURL = "wss://api.hyperliquid.xyz/ws"
	}
	if c.Trading.PremiumBps == 0 {
		c.Trading.PremiumBps = 5
	}
	if c.Trading.DefaultLeverage == 0 {
		c.Trading.DefaultLeverage = 1
	}
	if c.Server.Port == 0 {
		c.Server.Port = 6487
	}
	if c.Server.MaxPayloadBytes == 0 {
		c.Server.MaxPayloadBytes = 65536
	}
	if len(c.Server.WebhookIPs) == 0 {
		c.Server.WebhookIPs = append([]string(nil), defaultWebhookIPs...)
	}
	if c.Database.Path == "" {
		c.Database.Path = "hyperhook.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects configurations that would only fail later at order time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Exchange.PrivateKey) == "" {
		return fmt.Errorf("exchange.private_key is required (or %s)", envPrivateKey)
	}
	if strings.TrimSpace(c.Exchange.AccountAddress) == "" {
		return fmt.Errorf("exchange.account_address is required (or %s)", envAccountAddr)
	}
	if err := domain.ValidatePremium(c.Trading.PremiumBps); err != nil {
		return fmt.Errorf("trading.premium_bps: %w", err)
	}
	if c.Trading.DefaultLeverage < 1 {
		return fmt.Errorf("trading.default_leverage must be >= 1, got %d", c.Trading.DefaultLeverage)
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram.enabled")
	}
	return nil
}
