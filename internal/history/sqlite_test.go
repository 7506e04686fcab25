package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
)

var baseTime = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func report(id, root string, offset time.Duration, issues ...consistency.Inconsistency) *consistency.Report {
	return &consistency.Report{
		ID:              id,
		Root:            root,
		FilesScanned:    3,
		Inconsistencies: issues,
		GeneratedAt:     baseTime.Add(offset),
	}
}

var (
	namingIssue = consistency.Inconsistency{ID: "naming-respTime", Severity: consistency.SeverityHigh, AutoFixable: true}
	rangeIssue  = consistency.Inconsistency{ID: "range-successrate", Severity: consistency.SeverityMedium, AutoFixable: true}
	dupIssue    = consistency.Inconsistency{ID: "duplicate-UserMetric", Severity: consistency.SeverityMedium}
)

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	in := report("r1", "/src", 0, namingIssue, dupIssue)
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "/src", out.Root)
	assert.True(t, in.GeneratedAt.Equal(out.GeneratedAt))
	require.Len(t, out.Inconsistencies, 2)
	assert.Equal(t, consistency.SeverityHigh, out.Inconsistencies[0].Severity)

	_, err = store.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Save(ctx, report("old", "/src", 0, namingIssue)))
	require.NoError(t, store.Save(ctx, report("new", "/src", time.Hour, rangeIssue, dupIssue)))
	require.NoError(t, store.Save(ctx, report("mid", "/other", 30*time.Minute)))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})

	assert.True(t, baseTime.Add(time.Hour).Equal(entries[0].GeneratedAt))
	entries[0].GeneratedAt = time.Time{}
	assert.Equal(t, Entry{
		ID:              "new",
		Root:            "/src",
		TotalIssues:     2,
		HighestSeverity: "medium",
		AutoFixable:     1,
		FilesScanned:    3,
	}, entries[0])
	assert.Empty(t, entries[1].HighestSeverity)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ID)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Save(ctx, report("r1", "/src", 0, namingIssue)))
	require.NoError(t, store.Save(ctx, report("r1", "/src", 0)))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].TotalIssues)
}

func TestSQLiteStore_Latest(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	none, err := store.Latest(ctx, "/src")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.Save(ctx, report("a", "/src", 0)))
	require.NoError(t, store.Save(ctx, report("b", "/src", time.Minute)))
	require.NoError(t, store.Save(ctx, report("c", "/other", time.Hour)))

	latest, err := store.Latest(ctx, "/src")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "b", latest.ID)
}

func TestSQLiteStore_RejectsAnonymousReport(t *testing.T) {
	store := newStore(t)
	err := store.Save(t.Context(), &consistency.Report{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(t.Context(), report("r1", "/src", 0, namingIssue)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	entries, err := reopened.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "high", entries[0].HighestSeverity)
}

func TestDiff(t *testing.T) {
	prev := report("a", "/src", 0, namingIssue, dupIssue)
	cur := report("b", "/src", time.Minute, dupIssue, rangeIssue)

	d := Diff(prev, cur)
	assert.Equal(t, []string{"range-successrate"}, d.New)
	assert.Equal(t, []string{"naming-respTime"}, d.Resolved)
	assert.Equal(t, 1, d.Unchanged)

	first := Diff(nil, cur)
	assert.Len(t, first.New, 2)
	assert.Empty(t, first.Resolved)
}
