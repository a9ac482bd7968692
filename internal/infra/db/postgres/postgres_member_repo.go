package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-ai-relay/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*PostgresMemberRepo)(nil)

const undefinedTable = "42P01"

const memberSchema = `
CREATE TABLE IF NOT EXISTS group_members (
  group_name TEXT    NOT NULL,
  position   INTEGER NOT NULL,
  name       TEXT    NOT NULL,
  PRIMARY KEY (group_name, position),
  UNIQUE (group_name, name)
);`

// PostgresMemberRepo stores the ordered list as rows keyed by position.
// Save replaces all rows of the group in one serializable transaction.
type PostgresMemberRepo struct {
	pool  *pgxpool.Pool
	tx    *TxManager
	group string
}

func NewPostgresMemberRepo(pool *pgxpool.Pool, group string) *PostgresMemberRepo {
	if group == "" {
		group = "members"
	}
	return &PostgresMemberRepo{pool: pool, tx: NewTxManager(pool), group: group}
}

// EnsureSchema creates the table when it is missing.
func (r *PostgresMemberRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, memberSchema)
	return err
}

func (r *PostgresMemberRepo) Load(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM group_members WHERE group_name=$1 ORDER BY position`
	rows, err := r.pool.Query(ctx, q, r.group)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return []string{}, nil
		}
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *PostgresMemberRepo) Save(ctx context.Context, names []string) error {
	return r.tx.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_name=$1`, r.group); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		if len(names) == 0 {
			return nil
		}
		rows := make([][]interface{}, 0, len(names))
		for i, n := range names {
			rows = append(rows, []interface{}{r.group, i, n})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"group_members"},
			[]string{"group_name", "position", "name"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return nil
	})
}
