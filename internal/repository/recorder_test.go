package repository

import (
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingTx транзакция, которая запоминает SQL и ничего не выполняет.
// Методы, не переопределённые здесь, паникуют на nil pgx.Tx.
type recordingTx struct {
	pgx.Tx

	statements []string
	args       [][]any
	row        pgx.Row
}

func (tx *recordingTx) record(sql string, args []any) {
	tx.statements = append(tx.statements, sql)
	tx.args = append(tx.args, args)
}

func (tx *recordingTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.record(sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *recordingTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx.record(sql, args)
	return emptyRows{}, nil
}

func (tx *recordingTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	tx.record(sql, args)
	if tx.row != nil {
		return tx.row
	}
	return errRow{err: pgx.ErrNoRows}
}

func (tx *recordingTx) withTx() context.Context {
	return base.ContextWithTx(context.Background(), tx)
}

type emptyRows struct {
	pgx.Rows
}

func (emptyRows) Next() bool { return false }
func (emptyRows) Err() error { return nil }
func (emptyRows) Close()     {}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
