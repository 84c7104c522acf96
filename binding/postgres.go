package binding

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresBackend stores snapshots in the steam_bindings and
// steam_group_bindings tables.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend wraps an open database. The schema must already exist
// (see db.Migrate).
func NewPostgresBackend(db *sql.DB) *PostgresBackend { return &PostgresBackend{db: db} }

// Load reads every binding row.
func (p *PostgresBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Users: map[string]string{}, Groups: map[string]map[string]string{}}

	rows, err := p.db.QueryContext(ctx, `SELECT user_id, steam_id FROM steam_bindings`)
	if err != nil {
		return snap, fmt.Errorf("query bindings: %w", err)
	}
	for rows.Next() {
		var user, steam string
		if err := rows.Scan(&user, &steam); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan binding: %w", err)
		}
		snap.Users[user] = steam
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, err
	}
	rows.Close()

	rows, err = p.db.QueryContext(ctx, `SELECT group_id, user_id, steam_id FROM steam_group_bindings`)
	if err != nil {
		return snap, fmt.Errorf("query group bindings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var group, user, steam string
		if err := rows.Scan(&group, &user, &steam); err != nil {
			return snap, fmt.Errorf("scan group binding: %w", err)
		}
		members, ok := snap.Groups[group]
		if !ok {
			members = map[string]string{}
			snap.Groups[group] = members
		}
		members[user] = steam
	}
	return snap, rows.Err()
}

// Save replaces all rows with s inside one transaction.
func (p *PostgresBackend) Save(ctx context.Context, s Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM steam_group_bindings`); err != nil {
		return fmt.Errorf("clear group bindings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM steam_bindings`); err != nil {
		return fmt.Errorf("clear bindings: %w", err)
	}
	for user, steam := range s.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO steam_bindings (user_id, steam_id, updated_at) VALUES ($1, $2, NOW())`, user, steam); err != nil {
			return fmt.Errorf("insert binding %s: %w", user, err)
		}
	}
	for group, members := range s.Groups {
		for user, steam := range members {
			if _, err := tx.ExecContext(ctx, `INSERT INTO steam_group_bindings (group_id, user_id, steam_id, updated_at) VALUES ($1, $2, $3, NOW())`, group, user, steam); err != nil {
				return fmt.Errorf("insert group binding %s/%s: %w", group, user, err)
			}
		}
	}
	return tx.Commit()
}

// Ping checks the underlying connection.
func (p *PostgresBackend) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Close closes the database handle.
func (p *PostgresBackend) Close() error { return p.db.Close() }
