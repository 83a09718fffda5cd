// Package store provides persistence for analysis records and chat messages.
package store

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/triagesense/internal/profile"
	"github.com/hrygo/triagesense/internal/version"
)

// reportExcerptLimit caps how much of the raw report is persisted with a record.
const reportExcerptLimit = 2000

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate applies the latest schema and records the current version in the
// migration history, unless an equal or newer version is already recorded.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return err
	}

	current := s.profile.Version
	if current == "" {
		return nil
	}
	history, err := s.driver.FindMigrationHistoryList(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to find migration history")
	}
	for _, entry := range history {
		if version.IsVersionGreaterOrEqualThan(entry.Version, current) {
			return nil
		}
	}
	if _, err := s.driver.UpsertMigrationHistory(ctx, current); err != nil {
		return errors.Wrap(err, "failed to record migration history")
	}
	return nil
}

func (s *Store) CreateAnalysisRecord(ctx context.Context, create *AnalysisRecord) (*AnalysisRecord, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	create.ReportExcerpt = truncateExcerpt(create.ReportExcerpt, reportExcerptLimit)
	return s.driver.CreateAnalysisRecord(ctx, create)
}

// truncateExcerpt cuts s to at most limit bytes without splitting a rune, so
// the stored excerpt stays valid UTF-8 for JSON encoding.
func truncateExcerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (s *Store) ListAnalysisRecords(ctx context.Context, find *FindAnalysisRecord) ([]*AnalysisRecord, error) {
	return s.driver.ListAnalysisRecords(ctx, find)
}

func (s *Store) DeleteAnalysisRecords(ctx context.Context, delete *DeleteAnalysisRecord) (int64, error) {
	return s.driver.DeleteAnalysisRecords(ctx, delete)
}

func (s *Store) GetAnalysisStats(ctx context.Context, sessionID string) (*AnalysisStats, error) {
	return s.driver.GetAnalysisStats(ctx, sessionID)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) DeleteChatMessages(ctx context.Context, delete *DeleteChatMessage) (int64, error) {
	return s.driver.DeleteChatMessages(ctx, delete)
}
