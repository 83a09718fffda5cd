package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/triagesense/store"
)

func (d *DB) CreateAnalysisRecord(ctx context.Context, create *store.AnalysisRecord) (*store.AnalysisRecord, error) {
	secondaryJSON, err := json.Marshal(create.Secondary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secondary: %w", err)
	}
	analysesJSON, err := json.Marshal(create.Analyses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyses: %w", err)
	}

	stmt := `
		INSERT INTO analysis_record (
			uid, session_id, report_excerpt, symptoms, history,
			primary_specialty, primary_confidence, fell_back,
			secondary, analyses, created_ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.SessionID, create.ReportExcerpt, create.Symptoms, create.History,
		create.PrimarySpecialty, create.PrimaryConfidence, create.FellBack,
		string(secondaryJSON), string(analysesJSON), create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create analysis_record: %w", err)
	}

	return create, nil
}

func (d *DB) ListAnalysisRecords(ctx context.Context, find *store.FindAnalysisRecord) ([]*store.AnalysisRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = ?"), append(args, *find.SessionID)
	}

	query := `
		SELECT
			id, uid, session_id, report_excerpt, symptoms, history,
			primary_specialty, primary_confidence, fell_back,
			secondary, analyses, created_ts
		FROM analysis_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis_record: %w", err)
	}
	defer rows.Close()

	list := []*store.AnalysisRecord{}
	for rows.Next() {
		record := &store.AnalysisRecord{}
		var secondaryJSON, analysesJSON string
		if err := rows.Scan(
			&record.ID, &record.UID, &record.SessionID, &record.ReportExcerpt, &record.Symptoms, &record.History,
			&record.PrimarySpecialty, &record.PrimaryConfidence, &record.FellBack,
			&secondaryJSON, &analysesJSON, &record.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis_record: %w", err)
		}
		if err := json.Unmarshal([]byte(secondaryJSON), &record.Secondary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal secondary: %w", err)
		}
		if err := json.Unmarshal([]byte(analysesJSON), &record.Analyses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analyses: %w", err)
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteAnalysisRecords(ctx context.Context, delete *store.DeleteAnalysisRecord) (int64, error) {
	where, args := []string{"1 = 1"}, []any{}

	if delete.ID != nil {
		where, args = append(where, "id = ?"), append(args, *delete.ID)
	}
	if delete.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *delete.UID)
	}
	if delete.SessionID != nil {
		where, args = append(where, "session_id = ?"), append(args, *delete.SessionID)
	}

	result, err := d.db.ExecContext(ctx, "DELETE FROM analysis_record WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analysis_record: %w", err)
	}
	return result.RowsAffected()
}

func (d *DB) GetAnalysisStats(ctx context.Context, sessionID string) (*store.AnalysisStats, error) {
	stats := &store.AnalysisStats{ByPrimary: map[string]int64{}}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Unix()

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN created_ts >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(created_ts), 0)
		FROM analysis_record
		WHERE session_id = ?`
	if err := d.db.QueryRowContext(ctx, query, monthStart, sessionID).Scan(&stats.Total, &stats.ThisMonth, &stats.LastCreated); err != nil {
		return nil, fmt.Errorf("failed to get analysis stats: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT primary_specialty, COUNT(*) FROM analysis_record WHERE session_id = ? GROUP BY primary_specialty",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get specialty usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var specialty string
		var count int64
		if err := rows.Scan(&specialty, &count); err != nil {
			return nil, fmt.Errorf("failed to scan specialty usage: %w", err)
		}
		stats.ByPrimary[specialty] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
