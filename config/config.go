package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// StrategyConfig controla la estrategia simulada.
type StrategyConfig struct {
	WindowHours       int     `yaml:"window_hours"`         // ventana de agregación de sentimiento
	BuyThreshold      float64 `yaml:"buy_threshold"`        // score >= umbral → entrar YES
	SellThreshold     float64 `yaml:"sell_threshold"`       // score <= umbral → entrar NO
	MaxHoursToResolve int     `yaml:"max_hours_to_resolve"` // solo entrar cerca de la resolución
	TradeSizeUSD      float64 `yaml:"trade_size_usd"`
	Months            int     `yaml:"months"` // lookback de datos a descargar
	Workers           int     `yaml:"workers"`
}

// APIConfig contiene los base URLs y credenciales de las APIs externas.
// Las API keys solo entran por variable de entorno, nunca por YAML.
type APIConfig struct {
	CLOBBase    string `yaml:"clob_base"`
	NewsAPIBase string `yaml:"newsapi_base"`
	OpenAIBase  string `yaml:"openai_base"`
	OpenAIModel string `yaml:"openai_model"`
	NewsAPIKey  string `yaml:"-"`
	OpenAIKey   string `yaml:"-"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un YAML ausente no es un error: quedan los defaults más el entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// sin fichero: defaults + entorno
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// LookbackStart devuelve el inicio del rango de datos a descargar.
func (c *Config) LookbackStart(now time.Time) time.Time {
	return now.AddDate(0, -c.Strategy.Months, 0)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NEWSAPI_API_KEY"); v != "" {
		cfg.API.NewsAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.API.OpenAIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.API.OpenAIModel = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Strategy.WindowHours <= 0 {
		cfg.Strategy.WindowHours = 6
	}
	if cfg.Strategy.BuyThreshold == 0 {
		cfg.Strategy.BuyThreshold = 0.3
	}
	if cfg.Strategy.SellThreshold == 0 {
		cfg.Strategy.SellThreshold = -0.3
	}
	if cfg.Strategy.MaxHoursToResolve <= 0 {
		cfg.Strategy.MaxHoursToResolve = 72
	}
	if cfg.Strategy.TradeSizeUSD <= 0 {
		cfg.Strategy.TradeSizeUSD = 100
	}
	if cfg.Strategy.Months <= 0 {
		cfg.Strategy.Months = 6
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.NewsAPIBase == "" {
		cfg.API.NewsAPIBase = "https://newsapi.org/v2"
	}
	if cfg.API.OpenAIBase == "" {
		cfg.API.OpenAIBase = "https://api.openai.com/v1"
	}
	if cfg.API.OpenAIModel == "" {
		cfg.API.OpenAIModel = "gpt-4.1-mini"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polysent.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
