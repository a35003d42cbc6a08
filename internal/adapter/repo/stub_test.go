package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
)

type call struct {
	marker string
	args   []any
}

// stubExecutor answers queries from per-marker scripted rows.
type stubExecutor struct {
	rows  map[string][][]any
	errs  map[string]error
	calls []call
	txs   int
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{rows: map[string][][]any{}, errs: map[string]error{}}
}

func (s *stubExecutor) record(query string, args []any) (string, error) {
	marker, _, err := infra.ExtractMarker(query)
	if err != nil {
		return "", err
	}
	s.calls = append(s.calls, call{marker: marker, args: args})
	return marker, s.errs[marker]
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	_, err := s.record(query, args)
	return pgconn.CommandTag{}, err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, err := s.record(query, args)
	if err != nil {
		return stubRow{err: err}
	}
	rows := s.rows[marker]
	if len(rows) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	s.rows[marker] = rows[1:]
	return stubRow{values: rows[0]}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, err := s.record(query, args)
	if err != nil {
		return nil, err
	}
	return &stubRows{values: s.rows[marker], idx: -1}, nil
}

func (s *stubExecutor) InTx(ctx context.Context, fn func(infra.SQLExecutor) error) error {
	s.txs++
	return fn(s)
}

func (s *stubExecutor) markers() []string {
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.marker)
	}
	return out
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type stubRows struct {
	values [][]any
	idx    int
	closed bool
}

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.values[r.idx], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(r.values[r.idx], dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer {
			return errors.New("scan: destination must be a pointer")
		}
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(target.Elem().Type()) {
			return fmt.Errorf("scan: cannot assign %T to %s", v, target.Elem().Type())
		}
		target.Elem().Set(src)
	}
	return nil
}
