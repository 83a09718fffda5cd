package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/triagesense/store"
)

func (d *DB) FindMigrationHistoryList(ctx context.Context) ([]*store.MigrationHistory, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT version, created_ts
		FROM migration_history
		ORDER BY created_ts DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration_history: %w", err)
	}
	defer rows.Close()

	list := []*store.MigrationHistory{}
	for rows.Next() {
		entry := &store.MigrationHistory{}
		if err := rows.Scan(&entry.Version, &entry.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan migration_history: %w", err)
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

func (d *DB) UpsertMigrationHistory(ctx context.Context, version string) (*store.MigrationHistory, error) {
	entry := &store.MigrationHistory{
		Version:   version,
		CreatedTs: time.Now().Unix(),
	}
	stmt := `
		INSERT INTO migration_history (version, created_ts)
		VALUES ($1, $2)
		ON CONFLICT (version) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, entry.Version, entry.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert migration_history: %w", err)
	}
	return entry, nil
}
