package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	DatabaseBackend string `mapstructure:"DATABASE_BACKEND"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DatabasePath    string `mapstructure:"DATABASE_PATH"`
	DBMaxConns      int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32  `mapstructure:"DB_MIN_CONNS"`

	DataDir     string `mapstructure:"DATA_DIR"`
	DownloadDir string `mapstructure:"DOWNLOAD_DIR"`
	JarDir      string `mapstructure:"JAR_DIR"`

	JavaBin            string `mapstructure:"JAVA_BIN"`
	BridgeJar          string `mapstructure:"BRIDGE_JAR"`
	EngineStartTimeout int    `mapstructure:"ENGINE_START_TIMEOUT"`
	EngineCallTimeout  int    `mapstructure:"ENGINE_CALL_TIMEOUT"`

	AuthSecret    string `mapstructure:"AUTH_SECRET"`
	DrgMinVersion string `mapstructure:"DRG_MIN_VERSION"`
	ZipClDir      string `mapstructure:"ZIP_CL_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_BACKEND", "sqlite")
	v.SetDefault("DATABASE_PATH", "data/gopps.db")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DOWNLOAD_DIR", "downloads")
	v.SetDefault("JAR_DIR", "jars")
	v.SetDefault("JAVA_BIN", "java")
	v.SetDefault("BRIDGE_JAR", "jars/bridge.jar")
	v.SetDefault("ENGINE_START_TIMEOUT", 60)
	v.SetDefault("ENGINE_CALL_TIMEOUT", 30)
	v.SetDefault("DRG_MIN_VERSION", "400")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_BACKEND")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DATABASE_PATH")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DOWNLOAD_DIR")
	v.BindEnv("JAR_DIR")
	v.BindEnv("JAVA_BIN")
	v.BindEnv("BRIDGE_JAR")
	v.BindEnv("ENGINE_START_TIMEOUT")
	v.BindEnv("ENGINE_CALL_TIMEOUT")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("DRG_MIN_VERSION")
	v.BindEnv("ZIP_CL_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: API authentication is bypassed for all requests.")
		log.Println("WARNING: Set ENV=production and AUTH_SECRET before exposing this server.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PricerJarDir is where acquired pricer engine archives are unpacked.
func (c *Config) PricerJarDir() string {
	return filepath.Join(c.JarDir, "pricers")
}

// Validate checks that the configuration is safe to run. The postgres
// backend needs a connection URL, and production mode must not start
// without an auth secret.
func (c *Config) Validate() error {
	switch c.DatabaseBackend {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when DATABASE_BACKEND is \"sqlite\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_BACKEND is \"postgres\"")
		}
	default:
		return fmt.Errorf("DATABASE_BACKEND must be \"sqlite\" or \"postgres\", got %q", c.DatabaseBackend)
	}

	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	if c.AuthSecret != "" && len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 bytes, got %d", len(c.AuthSecret))
	}

	if c.EngineStartTimeout <= 0 {
		return fmt.Errorf("ENGINE_START_TIMEOUT must be positive, got %d", c.EngineStartTimeout)
	}
	if c.EngineCallTimeout <= 0 {
		return fmt.Errorf("ENGINE_CALL_TIMEOUT must be positive, got %d", c.EngineCallTimeout)
	}

	return nil
}
