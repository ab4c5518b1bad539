package portfolio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sonsunin65/portfolio-lugsana/pkg/logger"
)

// Main is the entry point of the portfolio binary. It parses args, connects to the
// configured backends and executes the selected command. It can be called directly
// from tests; cancelling ctx stops a running server gracefully.
//
// # Environment Variables
//
//	PORTFOLIO_BACKEND   - postgres (default), surrealdb or memory
//	PORTFOLIO_STORAGE   - s3 (default) or memory
//	PORTFOLIO_READ_ONLY - start in read-only mode
//	POSTGRES_DSN        - PostgreSQL connection string
//	SURREALDB_URL       - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS        - SurrealDB namespace (default: portfolio)
//	SURREALDB_DB        - SurrealDB database (default: portfolio)
//	SURREALDB_USER      - SurrealDB username (default: root)
//	SURREALDB_PASS      - SurrealDB password (default: root)
//	STORAGE_ENDPOINT    - S3 compatible endpoint, e.g. https://<project>.supabase.co/storage/v1/s3
//	STORAGE_REGION      - S3 region (default: us-east-1)
//	STORAGE_ACCESS_KEY  - S3 access key
//	STORAGE_SECRET_KEY  - S3 secret key
//	STORAGE_PUBLIC_URL  - origin of public object URLs, e.g. https://<project>.supabase.co
//	ALLOWED_ORIGINS     - CORS origins (default: *)
//	PORT                - HTTP port (default: 8080)
//	LOG_LEVEL           - zerolog level (default: info)
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args, os.Stderr)
	if errors.Is(err, ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	logData, err := logger.New().FromBuffer(os.Stderr).Level(config.LogLevel).Console(config.LogConsole).Make()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logData.Close()
	log := logData.Logger.With().Str("backend", config.Backend).Logger()

	app, err := New(ctx, config, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *CleanupCommand:
		if err := app.Cleanup(ctx, c); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
	return nil
}
