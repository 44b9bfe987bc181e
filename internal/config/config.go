package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fastygo/shopgen/domain"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"

	dateLayout = "2006-01-02"
)

// Config aggregates all runtime settings required by the datagen binary.
type Config struct {
	AppName     string
	Environment string
	Generator   GeneratorConfig
	Output      OutputConfig
	Database    DatabaseConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Context     ContextConfig
}

// GeneratorConfig drives the synthetic dataset. The yaml tags back the optional overlay file.
type GeneratorConfig struct {
	Customers          int     `yaml:"customers"`
	Orders             int     `yaml:"orders"`
	Products           int     `yaml:"products"`
	Events             int     `yaml:"events"`
	LookbackDays       int     `yaml:"lookback_days"`
	EventExtraDays     int     `yaml:"event_extra_days"`
	Seed               uint64  `yaml:"seed"`
	FrequentShare      float64 `yaml:"frequent_share"`
	FrequentOrderShare float64 `yaml:"frequent_order_share"`
	// ReferenceDate anchors every window ("today"). Pinning it keeps runs byte-identical.
	ReferenceDate time.Time `yaml:"-"`
}

type OutputConfig struct {
	Dir          string   `yaml:"dir"`
	Formats      []string `yaml:"formats"`
	Partitioned  bool     `yaml:"partitioned"`
	ManifestPath string   `yaml:"manifest_path"`
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type ContextConfig struct {
	LoadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// fileOverlay is the shape of the YAML file referenced by DATAGEN_CONFIG.
type fileOverlay struct {
	Generator     *GeneratorConfig `yaml:"generator"`
	Output        *OutputConfig    `yaml:"output"`
	ReferenceDate string           `yaml:"reference_date"`
}

// Load reads configuration from environment variables (optionally .env and a YAML overlay)
// on top of the batch defaults.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "datagen"),
		Environment: getString("APP_ENV", "development"),
		Generator:   DefaultGenerator(),
		Output: OutputConfig{
			Dir:          "data/generated",
			Formats:      []string{FormatCSV},
			ManifestPath: "data/manifest.db",
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5433"),
			Name:            getString("DB_NAME", "ecommerce"),
			User:            getString("DB_USER", "ecommerce_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 1),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Context: ContextConfig{
			LoadTimeout:     getDuration("LOAD_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
	}

	if path := os.Getenv("DATAGEN_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// DefaultGenerator returns the default batch sizes and shares.
func DefaultGenerator() GeneratorConfig {
	return GeneratorConfig{
		Customers:          1000,
		Orders:             5000,
		Products:           200,
		Events:             50000,
		LookbackDays:       730,
		EventExtraDays:     30,
		Seed:               42,
		FrequentShare:      0.2,
		FrequentOrderShare: 0.8,
		ReferenceDate:      Today(),
	}
}

// Today is the current UTC date at midnight.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	overlay := fileOverlay{Generator: &c.Generator, Output: &c.Output}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return domain.Invalidf("parse config file %s: %v", path, err)
	}
	if overlay.ReferenceDate != "" {
		ref, err := ParseReferenceDate(overlay.ReferenceDate)
		if err != nil {
			return err
		}
		c.Generator.ReferenceDate = ref
	}
	return nil
}

func (c *Config) applyEnv() error {
	g := &c.Generator
	e := &envParser{}
	e.intVar("DATAGEN_CUSTOMERS", &g.Customers)
	e.intVar("DATAGEN_ORDERS", &g.Orders)
	e.intVar("DATAGEN_PRODUCTS", &g.Products)
	e.intVar("DATAGEN_EVENTS", &g.Events)
	e.intVar("DATAGEN_LOOKBACK_DAYS", &g.LookbackDays)
	e.intVar("DATAGEN_EVENT_EXTRA_DAYS", &g.EventExtraDays)
	e.uintVar("DATAGEN_SEED", &g.Seed)
	e.floatVar("DATAGEN_FREQUENT_SHARE", &g.FrequentShare)
	e.floatVar("DATAGEN_FREQUENT_ORDER_SHARE", &g.FrequentOrderShare)
	if e.err != nil {
		return e.err
	}
	if val := os.Getenv("DATAGEN_REFERENCE_DATE"); val != "" {
		ref, err := ParseReferenceDate(val)
		if err != nil {
			return err
		}
		g.ReferenceDate = ref
	}

	o := &c.Output
	o.Dir = getString("DATAGEN_OUTPUT_DIR", o.Dir)
	e.boolVar("DATAGEN_PARTITIONED", &o.Partitioned)
	o.ManifestPath = getString("DATAGEN_MANIFEST_PATH", o.ManifestPath)
	if val := os.Getenv("DATAGEN_FORMATS"); val != "" {
		o.Formats = SplitFormats(val)
	}
	return e.err
}

// envParser reads generator settings strictly: a value that is set but does not parse is a
// configuration error. Only the first error is kept.
type envParser struct {
	err error
}

func (e *envParser) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func (e *envParser) fail(key, val string, err error) {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = numErr.Err
	}
	e.err = domain.Invalidf("%s=%q: %v", key, val, err)
}

func (e *envParser) intVar(key string, dst *int) {
	if val, ok := e.lookup(key); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			e.fail(key, val, err)
			return
		}
		*dst = parsed
	}
}

func (e *envParser) uintVar(key string, dst *uint64) {
	if val, ok := e.lookup(key); ok {
		parsed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			e.fail(key, val, err)
			return
		}
		*dst = parsed
	}
}

func (e *envParser) floatVar(key string, dst *float64) {
	if val, ok := e.lookup(key); ok {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			e.fail(key, val, err)
			return
		}
		*dst = parsed
	}
}

func (e *envParser) boolVar(key string, dst *bool) {
	if val, ok := e.lookup(key); ok {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			e.fail(key, val, err)
			return
		}
		*dst = parsed
	}
}

// ParseReferenceDate accepts YYYY-MM-DD and returns midnight UTC.
func ParseReferenceDate(val string) (time.Time, error) {
	ref, err := time.Parse(dateLayout, strings.TrimSpace(val))
	if err != nil {
		return time.Time{}, domain.Invalidf("reference date %q: expected YYYY-MM-DD", val)
	}
	return ref.UTC(), nil
}

// SplitFormats parses a comma separated format list.
func SplitFormats(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate fails fast before any generation begins.
func (g GeneratorConfig) Validate() error {
	switch {
	case g.Customers < 0:
		return domain.Invalidf("customers must be >= 0, got %d", g.Customers)
	case g.Orders < 0:
		return domain.Invalidf("orders must be >= 0, got %d", g.Orders)
	case g.Events < 0:
		return domain.Invalidf("events must be >= 0, got %d", g.Events)
	case g.Products < 1:
		return domain.Invalidf("product catalog size must be >= 1, got %d", g.Products)
	case g.LookbackDays < 1:
		return domain.Invalidf("lookback days must be >= 1, got %d", g.LookbackDays)
	case g.EventExtraDays < 0:
		return domain.Invalidf("event extra days must be >= 0, got %d", g.EventExtraDays)
	case g.FrequentShare < 0 || g.FrequentShare > 1:
		return domain.Invalidf("frequent share must be within [0,1], got %v", g.FrequentShare)
	case g.FrequentOrderShare < 0 || g.FrequentOrderShare > 1:
		return domain.Invalidf("frequent order share must be within [0,1], got %v", g.FrequentOrderShare)
	case g.ReferenceDate.IsZero():
		return domain.Invalidf("reference date is required")
	case g.Customers == 0 && g.Orders > 0:
		return domain.Invalidf("%d orders requested without customers", g.Orders)
	case g.Customers == 0 && g.Events > 0:
		return domain.Invalidf("%d events requested without customers", g.Events)
	}
	return nil
}

// Validate checks output settings.
func (o OutputConfig) Validate() error {
	if o.Dir == "" {
		return domain.Invalidf("output directory is required")
	}
	if len(o.Formats) == 0 {
		return domain.Invalidf("at least one output format is required")
	}
	for _, f := range o.Formats {
		if f != FormatCSV && f != FormatParquet {
			return domain.Invalidf("unknown output format %q", f)
		}
	}
	return nil
}

// HasFormat reports whether the format was requested.
func (o OutputConfig) HasFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// OrderWindow is the inclusive day range orders are drawn from: the lookback up to yesterday.
func (g GeneratorConfig) OrderWindow() (time.Time, time.Time) {
	return g.ReferenceDate.AddDate(0, 0, -g.LookbackDays), g.ReferenceDate.AddDate(0, 0, -1)
}

// EventWindow reaches EventExtraDays further back than the order window.
func (g GeneratorConfig) EventWindow() (time.Time, time.Time) {
	start, end := g.OrderWindow()
	return start.AddDate(0, 0, -g.EventExtraDays), end
}

// Fingerprint is a stable textual form of everything that influences generated bytes.
func (g GeneratorConfig) Fingerprint() string {
	return fmt.Sprintf("customers=%d;orders=%d;products=%d;events=%d;lookback=%d;extra=%d;seed=%d;frequent=%g;frequent_orders=%g;reference=%s",
		g.Customers, g.Orders, g.Products, g.Events, g.LookbackDays, g.EventExtraDays,
		g.Seed, g.FrequentShare, g.FrequentOrderShare, g.ReferenceDate.Format(dateLayout))
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
