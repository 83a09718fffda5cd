package postgres

import (
	"context"

	"github.com/pkg/errors"
)

const latestSchema = `
CREATE TABLE IF NOT EXISTS analysis_record (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL DEFAULT '',
	report_excerpt TEXT NOT NULL DEFAULT '',
	symptoms TEXT NOT NULL DEFAULT '',
	history TEXT NOT NULL DEFAULT '',
	primary_specialty TEXT NOT NULL,
	primary_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	fell_back BOOLEAN NOT NULL DEFAULT FALSE,
	secondary JSONB NOT NULL DEFAULT '[]',
	analyses JSONB NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_record_session_id ON analysis_record (session_id);
CREATE INDEX IF NOT EXISTS idx_analysis_record_created_ts ON analysis_record (created_ts);

CREATE TABLE IF NOT EXISTS chat_message (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_message_session_id ON chat_message (session_id);

CREATE TABLE IF NOT EXISTS migration_history (
	version TEXT NOT NULL PRIMARY KEY,
	created_ts BIGINT NOT NULL
);
`

// Migrate applies the latest schema. All statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
