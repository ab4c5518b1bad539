package portfolio

import (
	"context"
	"fmt"
)

// Migrate creates or updates the schema of the configured table backend. PostgreSQL
// runs GORM AutoMigrate over every model; SurrealDB and the memory table need nothing.
// It fails in read-only mode.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.logger.Info().Msg("Running database migrations...")
	if err := a.table.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.logger.Info().Msg("Migrations completed successfully")
	return nil
}

// Cleanup cascade-deletes one record and logs the outcome.
func (a *App) Cleanup(ctx context.Context, cmd *CleanupCommand) error {
	coll, ok := a.collections[cmd.Collection]
	if !ok {
		return fmt.Errorf("unknown collection: %s", cmd.Collection)
	}
	report, err := a.sync.CascadeDelete(ctx, coll.Tree, cmd.ID)
	outcome := report.Outcome(err)
	a.logger.Info().
		Str("status", string(outcome.Status)).
		Strs("warnings", outcome.Warnings).
		Msg(outcome.Message)
	return err
}
