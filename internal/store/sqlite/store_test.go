package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testArtifact(id, jobID, table string, created time.Time, ttl time.Duration) *store.Artifact {
	return &store.Artifact{
		ID:          id,
		JobID:       jobID,
		TableName:   table,
		StorageKey:  jobID + "/" + table + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        2048,
		CreatedAt:   created,
		ExpiresAt:   created.Add(ttl),
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	require.NoError(t, s.CreateArtifact(context.Background(), testArtifact("art-1", "job-1", "original_data", time.Now(), time.Hour)))
	require.NoError(t, s.Close())

	s, err = Open(dbPath, logger)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetArtifactByKey(context.Background(), "job-1/original_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "art-1", got.ID)
}

func TestCreateAndGetArtifact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 9, 10, 30, 0, 123456789, time.FixedZone("IST", 2*3600))
	a := testArtifact("art-1", "job-1", "group_averages", created, 24*time.Hour)
	require.NoError(t, s.CreateArtifact(ctx, a))

	got, err := s.GetArtifactByKey(ctx, a.StorageKey)
	require.NoError(t, err)

	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.JobID, got.JobID)
	assert.Equal(t, a.TableName, got.TableName)
	assert.Equal(t, a.ContentType, got.ContentType)
	assert.Equal(t, a.Size, got.Size)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, a.ExpiresAt.Equal(got.ExpiresAt))
}

func TestCreateArtifact_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testArtifact("art-1", "job-1", "post_scaled", time.Now(), time.Hour)
	require.NoError(t, s.CreateArtifact(ctx, a))

	dup := testArtifact("art-2", "job-1", "post_scaled", time.Now(), time.Hour)
	err := s.CreateArtifact(ctx, dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetArtifactByKey_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetArtifactByKey(context.Background(), "job-x/none.xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListArtifactsByJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateArtifact(ctx, testArtifact("a1", "job-1", "processed_data", now, time.Hour)))
	require.NoError(t, s.CreateArtifact(ctx, testArtifact("a2", "job-1", "group_averages", now, time.Hour)))
	require.NoError(t, s.CreateArtifact(ctx, testArtifact("a3", "job-2", "group_averages", now, time.Hour)))

	got, err := s.ListArtifactsByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "group_averages", got[0].TableName)
	assert.Equal(t, "processed_data", got[1].TableName)

	none, err := s.ListArtifactsByJob(ctx, "job-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListExpiredArtifacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Expiries at base+1h, base+1h+0.5s and base+48h.
	require.NoError(t, s.CreateArtifact(ctx, testArtifact("old", "job-1", "original_data", base, time.Hour)))
	require.NoError(t, s.CreateArtifact(ctx, testArtifact("half", "job-1", "processed_data", base.Add(500*time.Millisecond), time.Hour)))
	require.NoError(t, s.CreateArtifact(ctx, testArtifact("fresh", "job-2", "original_data", base, 48*time.Hour)))

	got, err := s.ListExpiredArtifacts(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)

	got, err = s.ListExpiredArtifacts(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "old", got[0].ID)
	assert.Equal(t, "half", got[1].ID)
}

func TestDeleteArtifact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testArtifact("art-1", "job-1", "group_scaled", time.Now(), time.Hour)
	require.NoError(t, s.CreateArtifact(ctx, a))

	require.NoError(t, s.DeleteArtifact(ctx, "art-1"))
	_, err := s.GetArtifactByKey(ctx, a.StorageKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteArtifact(ctx, "art-1"), store.ErrNotFound)
}

func TestArtifact_Expired(t *testing.T) {
	now := time.Now()
	a := testArtifact("a", "j", "t", now.Add(-2*time.Hour), time.Hour)
	assert.True(t, a.Expired(now))
	assert.False(t, a.Expired(now.Add(-90*time.Minute)))
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
