package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wellness-nudges-backend/internal/db"
	"wellness-nudges-backend/internal/scoring"
)

type Config struct {
	Port        int             `yaml:"port"`
	CORSOrigins []string        `yaml:"cors_origins"`
	SeedOnStart bool            `yaml:"seed_on_start"`
	Limit       int             `yaml:"limit"`
	Weights     scoring.Weights `yaml:"weights"`
	Analytics   Analytics       `yaml:"analytics"`
}

// Analytics selects where recommendation and action events are recorded.
// An empty Driver disables recording.
type Analytics struct {
	Driver string `yaml:"driver"`

	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	SQLitePath string `yaml:"sqlite_path"`
}

func Default() Config {
	return Config{
		Port:        3000,
		CORSOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		SeedOnStart: true,
		Limit:       4,
		Weights:     scoring.DefaultWeights(),
		Analytics: Analytics{
			DBPort:     5432,
			SQLitePath: "data/analytics.db",
		},
	}
}

// Load starts from Default, applies the YAML file named by NUDGE_CONFIG if
// set, then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("NUDGE_CONFIG")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := getEnvInt("PORT"); v > 0 {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := getEnvBool("SEED_ON_START"); ok {
		cfg.SeedOnStart = v
	}
	if v := getEnvInt("RECOMMENDATION_LIMIT"); v > 0 {
		cfg.Limit = v
	}

	a := &cfg.Analytics
	if v := strings.TrimSpace(os.Getenv("ANALYTICS_DRIVER")); v != "" {
		a.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		a.DBHost = v
	}
	if v := getEnvInt("DB_PORT"); v > 0 {
		a.DBPort = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		a.DBUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		a.DBPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		a.DBName = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		a.SQLitePath = v
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("invalid recommendation limit %d", c.Limit)
	}
	switch c.Analytics.Driver {
	case "", db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported analytics driver %q", c.Analytics.Driver)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (a Analytics) Enabled() bool {
	return a.Driver != ""
}

func (a Analytics) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		a.DBHost, a.DBPort, a.DBUser, a.DBPassword, a.DBName,
	)
}

// DSN returns the data source name for the configured driver.
func (a Analytics) DSN() string {
	if a.Driver == db.DriverSQLite {
		return a.SQLitePath
	}
	return a.ConnString()
}

func getEnvInt(key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return 0
	}
	return v
}

func getEnvBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
