package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/triagesense/internal/profile"
	"github.com/hrygo/triagesense/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestMigrateIsIdempotent(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	initialized, err := driver.IsInitialized(ctx)
	require.NoError(t, err)
	require.True(t, initialized)

	require.NoError(t, driver.Migrate(ctx))
}

func TestAnalysisRecordRoundTrip(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	created, err := driver.CreateAnalysisRecord(ctx, &store.AnalysisRecord{
		UID:               "rec-1",
		SessionID:         "session-a",
		ReportExcerpt:     "ECG shows sinus rhythm with occasional PVCs.",
		Symptoms:          "palpitations",
		PrimarySpecialty:  "cardiology",
		PrimaryConfidence: 0.62,
		Secondary:         []string{"pulmonology"},
		Analyses: []store.AgentAnalysis{
			{Key: "cardiology", Name: "Cardiology", Icon: "❤️", Confidence: 0.62, Analysis: "Benign ectopy."},
			{Key: "pulmonology", Name: "Pulmonology", Icon: "🫁", Confidence: 0.25, Analysis: "No pulmonary findings."},
		},
		CreatedTs: 1700000000,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	session := "session-a"
	list, err := driver.ListAnalysisRecords(ctx, &store.FindAnalysisRecord{SessionID: &session})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	require.Equal(t, "rec-1", got.UID)
	require.Equal(t, "cardiology", got.PrimarySpecialty)
	require.InDelta(t, 0.62, got.PrimaryConfidence, 1e-9)
	require.False(t, got.FellBack)
	require.Equal(t, []string{"pulmonology"}, got.Secondary)
	require.Len(t, got.Analyses, 2)
	require.Equal(t, "Benign ectopy.", got.Analyses[0].Analysis)
}

func TestListAnalysisRecordsOrderAndLimit(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	for i, ts := range []int64{100, 300, 200} {
		_, err := driver.CreateAnalysisRecord(ctx, &store.AnalysisRecord{
			UID:              string(rune('a' + i)),
			SessionID:        "s",
			PrimarySpecialty: "general",
			CreatedTs:        ts,
		})
		require.NoError(t, err)
	}

	session := "s"
	limit := 2
	list, err := driver.ListAnalysisRecords(ctx, &store.FindAnalysisRecord{SessionID: &session, Limit: &limit})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(300), list[0].CreatedTs)
	require.Equal(t, int64(200), list[1].CreatedTs)
}

func TestDeleteAnalysisRecordsBySession(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	uids := []string{"k1", "d1", "d2"}
	sessions := []string{"keep", "drop", "drop"}
	for i := range uids {
		_, err := driver.CreateAnalysisRecord(ctx, &store.AnalysisRecord{
			UID:              uids[i],
			SessionID:        sessions[i],
			PrimarySpecialty: "general",
			CreatedTs:        1,
		})
		require.NoError(t, err)
	}

	drop := "drop"
	deleted, err := driver.DeleteAnalysisRecords(ctx, &store.DeleteAnalysisRecord{SessionID: &drop})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	keep := "keep"
	list, err := driver.ListAnalysisRecords(ctx, &store.FindAnalysisRecord{SessionID: &keep})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestGetAnalysisStats(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	specialties := []string{"cardiology", "cardiology", "general"}
	for i, specialty := range specialties {
		_, err := driver.CreateAnalysisRecord(ctx, &store.AnalysisRecord{
			UID:              string(rune('a' + i)),
			SessionID:        "s",
			PrimarySpecialty: specialty,
			CreatedTs:        int64(1000 + i),
		})
		require.NoError(t, err)
	}

	stats, err := driver.GetAnalysisStats(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(1002), stats.LastCreated)
	require.Equal(t, int64(2), stats.ByPrimary["cardiology"])
	require.Equal(t, int64(1), stats.ByPrimary["general"])

	empty, err := driver.GetAnalysisStats(ctx, "unknown")
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.Total)
	require.Equal(t, int64(0), empty.LastCreated)
}

func TestChatMessageRoundTrip(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	_, err := driver.CreateChatMessage(ctx, &store.ChatMessage{
		UID: "m1", SessionID: "s", Role: store.RoleUser, Content: "hello", CreatedTs: 10,
	})
	require.NoError(t, err)
	_, err = driver.CreateChatMessage(ctx, &store.ChatMessage{
		UID: "m2", SessionID: "s", Role: store.RoleAssistant, Content: "hi there", CreatedTs: 20,
	})
	require.NoError(t, err)

	session := "s"
	list, err := driver.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &session})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, store.RoleUser, list[0].Role)
	require.Equal(t, store.RoleAssistant, list[1].Role)

	deleted, err := driver.DeleteChatMessages(ctx, &store.DeleteChatMessage{SessionID: &session})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)
}

func TestMigrationHistoryRecordsVersion(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	p := &profile.Profile{Mode: "dev", Driver: "sqlite", Version: "0.1.0"}
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "repeated migration must not duplicate the entry")

	history, err := driver.FindMigrationHistoryList(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "0.1.0", history[0].Version)

	// An older build never rewrites the recorded version.
	p.Version = "0.0.9"
	require.NoError(t, s.Migrate(ctx))
	history, err = driver.FindMigrationHistoryList(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	p.Version = "0.2.0"
	require.NoError(t, s.Migrate(ctx))
	history, err = driver.FindMigrationHistoryList(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
}
