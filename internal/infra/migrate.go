package infra

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

// SchemaFor returns the ordered DDL statements for a driver.
func SchemaFor(driver string) ([]string, error) {
	switch driver {
	case DriverPostgres:
		return sqlinline.SchemaPostgres, nil
	case DriverSQLite:
		return sqlinline.SchemaSQLite, nil
	default:
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}
}

// Migrate applies the schema for driver inside one transaction.
func Migrate(ctx context.Context, db *sqlx.DB, driver string, logger zerolog.Logger) error {
	stmts, err := SchemaFor(driver)
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		marker, body, err := ExtractMarker(stmt)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, body); err != nil {
			return fmt.Errorf("apply %s: %w", marker, err)
		}
		logger.Debug().Str("sql", marker).Msg("schema statement applied")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	logger.Info().Str("driver", driver).Int("statements", len(stmts)).Msg("schema up to date")
	return nil
}
