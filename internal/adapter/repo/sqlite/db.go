// Package sqlite holds sqlx repositories backed by go-sqlite3. They serve
// local development (DATABASE_DRIVER=sqlite3) and repository tests.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// runner strips the audit marker and logs each statement by marker, the same
// way infra.SQLRunner does for pgx.
type runner struct {
	q      queryer
	logger zerolog.Logger
}

func (r runner) get(ctx context.Context, dest any, query string, args ...any) error {
	marker, body, err := infra.ExtractMarker(query)
	if err != nil {
		return err
	}
	r.logger.Debug().Str("sql", marker).Msg("get")
	return r.q.GetContext(ctx, dest, body, args...)
}

func (r runner) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	marker, body, err := infra.ExtractMarker(query)
	if err != nil {
		return err
	}
	r.logger.Debug().Str("sql", marker).Msg("select")
	return r.q.SelectContext(ctx, dest, body, args...)
}

func (r runner) insert(ctx context.Context, query string, args ...any) (int64, error) {
	marker, body, err := infra.ExtractMarker(query)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, body, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("sql", marker).Msg("insert failed")
		return 0, err
	}
	r.logger.Debug().Str("sql", marker).Msg("insert")
	return res.LastInsertId()
}

func newRunner(db *sqlx.DB, logger zerolog.Logger) runner {
	return runner{q: db, logger: logger}
}
