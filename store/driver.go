package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database access.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error
	FindMigrationHistoryList(ctx context.Context) ([]*MigrationHistory, error)
	UpsertMigrationHistory(ctx context.Context, version string) (*MigrationHistory, error)

	CreateAnalysisRecord(ctx context.Context, create *AnalysisRecord) (*AnalysisRecord, error)
	ListAnalysisRecords(ctx context.Context, find *FindAnalysisRecord) ([]*AnalysisRecord, error)
	DeleteAnalysisRecords(ctx context.Context, delete *DeleteAnalysisRecord) (int64, error)
	GetAnalysisStats(ctx context.Context, sessionID string) (*AnalysisStats, error)

	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
	DeleteChatMessages(ctx context.Context, delete *DeleteChatMessage) (int64, error)
}
