package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mvaldesr/polyedge/internal/pricing"
	"github.com/mvaldesr/polyedge/internal/risk"
	"github.com/mvaldesr/polyedge/internal/scanner"
)

// Config es la configuración completa del bot.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Bot      BotConfig      `yaml:"bot"`
	Scanner  scanner.Config `yaml:"scanner"`
	Risk     risk.Config    `yaml:"risk"`
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	CLOBBase      string `yaml:"clob_base"`
	GammaBase     string `yaml:"gamma_base"`
	CoinGeckoBase string `yaml:"coingecko_base"`
	PolygonRPC    string `yaml:"polygon_rpc"`
}

// BotConfig controla los ciclos del bot.
type BotConfig struct {
	ScanIntervalSeconds    int     `yaml:"scan_interval_seconds"`
	MonitorIntervalSeconds int     `yaml:"monitor_interval_seconds"`
	TopBetsPerScan         int     `yaml:"top_bets_per_scan"`
	StartingBankrollUSD    float64 `yaml:"starting_bankroll_usd"`
	MinEV                  float64 `yaml:"min_ev"` // umbral para alertas y para el refuerzo del modelo de vol
	Regime                 string  `yaml:"regime"` // cooperation | mixed | defection
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// TelegramConfig son las credenciales del bot de avisos. Vacías
// desactivan Telegram.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

// WalletConfig son las credenciales del wallet de trading. La private
// key solo se acepta por variable de entorno.
type WalletConfig struct {
	PrivateKey string `yaml:"-"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default devuelve la configuración completa por defecto.
func Default() *Config {
	return &Config{
		API: APIConfig{
			CLOBBase:      "https://clob.polymarket.com",
			GammaBase:     "https://gamma-api.polymarket.com",
			CoinGeckoBase: "https://api.coingecko.com",
			PolygonRPC:    "https://polygon-rpc.com",
		},
		Bot: BotConfig{
			ScanIntervalSeconds:    3600,
			MonitorIntervalSeconds: 300,
			TopBetsPerScan:         3,
			StartingBankrollUSD:    500,
			MinEV:                  0.04,
			Regime:                 pricing.RegimeMixed,
		},
		Scanner: scanner.DefaultConfig(),
		Risk:    risk.DefaultConfig(),
		Storage: StorageConfig{DSN: "polyedge.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load carga la configuración desde el archivo YAML y el archivo .env
// si existen. Los campos ausentes del YAML conservan sus defaults; las
// variables de entorno pisan a ambos.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// sin archivo se corre con defaults + entorno
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// ScanInterval devuelve el intervalo entre scans como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Bot.ScanIntervalSeconds) * time.Second
}

// MonitorInterval devuelve el intervalo del monitor de posiciones.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Bot.MonitorIntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STARTING_BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Bot.StartingBankrollUSD = f
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("POLYMARKET_PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.API.PolygonRPC = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
