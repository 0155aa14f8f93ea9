package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Config holds all application configuration
type Config struct {
	// Document store selection
	Store StoreConfig `env:",prefix=STORE_"`

	// Firestore configuration
	Firestore FirestoreConfig `env:",prefix=FIRESTORE_"`

	// PostgreSQL configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// SQLite configuration
	SQLite SQLiteConfig `env:",prefix=SQLITE_"`

	// Logging configuration
	Log LogConfig `env:",prefix=LOG_"`

	// Metrics configuration
	Metrics MetricsConfig `env:",prefix=METRICS_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Backend string `env:"BACKEND,default=firestore"`
}

// FirestoreConfig holds the managed document database settings
type FirestoreConfig struct {
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE,default=serviceAccountKey.json"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=game_admin"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=5"`
	MinConns int    `env:"MIN_CONNS,default=1"`
}

// SQLiteConfig holds the local SQLite file settings
type SQLiteConfig struct {
	Path string `env:"PATH,default=admin.db"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `env:"LEVEL,default=info"`
	Path       string `env:"PATH"` // empty = stderr only
	MaxSizeMB  int    `env:"MAX_SIZE_MB,default=100"`
	MaxBackups int    `env:"MAX_BACKUPS,default=3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS,default=7"`
	Compress   bool   `env:"COMPRESS,default=false"`
}

// MetricsConfig holds Pushgateway settings
type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	Job            string `env:"JOB,default=game-admin"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
}

// Load loads an optional .env file and then configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith loads configuration from the given lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFirestore, BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendFirestore && c.Firestore.CredentialsFile == "" {
		return fmt.Errorf("firestore backend requires FIRESTORE_CREDENTIALS_FILE")
	}
	return nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetDSN returns the modernc.org/sqlite DSN for the configured file
func (c *SQLiteConfig) GetDSN() string {
	return c.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
