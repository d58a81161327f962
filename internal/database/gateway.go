package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Querier is implemented by both *sql.DB and *sql.Tx, so every query helper
// works in or out of a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Gateway is the MySQL persistence gateway. A transaction opened by InTx
// travels in the context, so store methods called with that context join it.
type Gateway struct {
	DB *sql.DB
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{DB: db}
}

func (g *Gateway) q(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return g.DB
}

// InTx runs fn inside a serializable transaction. Nested calls join the
// outer transaction.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := g.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LockUser takes a row lock on the user until the surrounding transaction
// ends. Check-then-act sequences on a user's rows serialise on it.
func (g *Gateway) LockUser(ctx context.Context, userID int64) error {
	var id int64
	err := g.q(ctx).QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", userID).Scan(&id)
	return mapErr(err, "user")
}

// mapErr translates driver errors into apperr kinds. what names the entity
// for not-found messages.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s not found", apperr.ErrNotFound, what)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, what)
	}
	return err
}

// mapFind is mapErr for lookups where "no row" is a normal outcome.
func mapFind[T any](v *T, err error, what string) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, what)
	}
	return v, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// requireRow reports ErrNotFound when an UPDATE touched nothing because the
// row is missing. MySQL counts unchanged rows as unaffected, so a zero count
// is confirmed with existsQuery.
func (g *Gateway) requireRow(ctx context.Context, res sql.Result, existsQuery string, id int64, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var count int
	if err := g.q(ctx).QueryRowContext(ctx, existsQuery, id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s not found", apperr.ErrNotFound, what)
	}
	return nil
}
