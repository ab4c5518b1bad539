package portfolio

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
	blobmemory "github.com/sonsunin65/portfolio-lugsana/pkg/blob/memory"
	"github.com/sonsunin65/portfolio-lugsana/pkg/blob/s3"
	"github.com/sonsunin65/portfolio-lugsana/pkg/consistency"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store/memory"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store/postgres"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store/surrealdb"
)

// Table backends.
const (
	BackendPostgres  = "postgres"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// Blob storage backends.
const (
	StorageS3     = "s3"
	StorageMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	// Table backend: postgres, surrealdb or memory.
	Backend       string
	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// Blob storage: s3 or memory.
	Storage          string
	StorageEndpoint  string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string
	// StoragePublicURL is the origin public object URLs are built from.
	StoragePublicURL string

	ReadOnly bool // When true, all write operations are rejected

	ServerPort     string
	AllowedOrigins []string
	LogLevel       string
	LogConsole     bool

	BlobConcurrency int
}

// App holds the application state.
type App struct {
	table       store.Table
	blobs       blob.Store
	sync        *consistency.Synchronizer
	uploader    *blob.Uploader
	collections map[string]*Collection
	config      *Config
	logger      zerolog.Logger
	readOnly    atomic.Bool
}

// New connects to the configured backends and creates an application instance.
func New(ctx context.Context, config *Config, logger zerolog.Logger) (*App, error) {
	table, err := openTable(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobs(ctx, config, logger)
	if err != nil {
		_ = table.Close()
		return nil, err
	}
	return NewWithStores(config, table, blobs, logger), nil
}

// NewWithStores creates an application on top of already opened stores.
func NewWithStores(config *Config, table store.Table, blobs blob.Store, logger zerolog.Logger) *App {
	app := &App{
		blobs:       blobs,
		collections: DefaultCollections(),
		config:      config,
		logger:      logger,
	}
	app.readOnly.Store(config.ReadOnly)

	app.table = store.NewReadOnlyTable(table, app.IsReadOnly)
	app.sync = consistency.NewSynchronizer(app.table, blobs, logger, consistency.WithBlobConcurrency(config.BlobConcurrency))
	app.uploader = blob.NewUploader(blobs, logger)
	return app
}

func openTable(ctx context.Context, config *Config, logger zerolog.Logger) (store.Table, error) {
	switch config.Backend {
	case BackendPostgres, "":
		t, err := postgres.NewPostgresTable(config.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Msg("Connected to PostgreSQL")
		return t, nil
	case BackendSurrealDB:
		t, err := surrealdb.NewSurrealTable(ctx, surrealdb.Config{
			URL:       config.SurrealDBURL,
			Namespace: config.SurrealDBNS,
			Database:  config.SurrealDBDB,
			Username:  config.SurrealDBUser,
			Password:  config.SurrealDBPass,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		logger.Info().Str("url", config.SurrealDBURL).Msg("Connected to SurrealDB")
		return t, nil
	case BackendMemory:
		logger.Warn().Msg("Using in-memory table; data is lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", config.Backend)
}

func openBlobs(ctx context.Context, config *Config, logger zerolog.Logger) (blob.Store, error) {
	switch config.Storage {
	case StorageS3, "":
		s, err := s3.NewS3Store(ctx, s3.Config{
			Endpoint:   config.StorageEndpoint,
			Region:     config.StorageRegion,
			AccessKey:  config.StorageAccessKey,
			SecretKey:  config.StorageSecretKey,
			PublicBase: config.StoragePublicURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure object storage: %w", err)
		}
		return s, nil
	case StorageMemory:
		logger.Warn().Msg("Using in-memory blob storage; uploads are lost on exit")
		return blobmemory.New(config.StoragePublicURL), nil
	}
	return nil, fmt.Errorf("unknown storage: %s", config.Storage)
}

// Close closes the application and its resources
func (a *App) Close() error {
	if a.table != nil {
		return a.table.Close()
	}
	return nil
}

// Table returns the read-only guarded table (useful for testing).
func (a *App) Table() store.Table {
	return a.table
}

// Synchronizer returns the consistency routines bound to the app's stores.
func (a *App) Synchronizer() *consistency.Synchronizer {
	return a.sync
}

// SetReadOnly toggles maintenance mode. While set, every write through the API fails
// with store.ErrReadOnly; reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.logger.Info().Bool("read_only", readOnly).Msg("Application read-only mode changed")
}

// IsReadOnly returns whether the application is currently in read-only mode.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}

// getEnv returns the environment variable key, or defaultValue when it is unset or
// empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
