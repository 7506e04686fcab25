package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/history"
)

func TestHistory_ListAndShow(t *testing.T) {
	e := newTestEnv(t, map[string]string{"api.ts": "const respTime = 250;\n"})
	yaml := "history:\n  enabled: true\n  path: " + filepath.Join(e.dir, "history.db") + "\n"

	_ = (&RunCmd{Path: e.src}).Run(e.global, e.cli(t, yaml))
	writeFile(t, filepath.Join(e.src, "api.ts"), cleanSource)
	require.NoError(t, (&RunCmd{Path: e.src}).Run(e.global, e.cli(t, yaml)))

	cli := e.cli(t, yaml)
	cli.Format = "json"
	e.out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(e.global, cli))

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Zero(t, entries[0].TotalIssues, "newest first")
	assert.Equal(t, 1, entries[1].TotalIssues)

	// Text listing, limited.
	e.out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 1}).Run(e.global, e.cli(t, yaml)))
	lines := strings.Split(strings.TrimSpace(e.out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], entries[0].ID)
	assert.Contains(t, lines[0], "highest=-")

	// A stored report renders like a fresh one.
	e.out.Reset()
	require.NoError(t, (&HistoryCmd{ID: entries[1].ID}).Run(e.global, e.cli(t, yaml)))
	assert.Contains(t, e.out.String(), entries[1].ID)
	assert.Contains(t, e.out.String(), "respTime")
}

func TestHistory_Errors(t *testing.T) {
	e := newTestEnv(t, nil)
	dbPath := filepath.Join(e.dir, "history.db")
	yaml := "history:\n  path: " + dbPath + "\n"

	err := (&HistoryCmd{}).Run(e.global, e.cli(t, yaml))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	store, err := history.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = (&HistoryCmd{ID: "missing"}).Run(e.global, e.cli(t, yaml))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	e.out.Reset()
	require.NoError(t, (&HistoryCmd{}).Run(e.global, e.cli(t, yaml)))
	assert.Equal(t, "No reports stored.\n", e.out.String())
}

func TestWatch_RunsInitialCheck(t *testing.T) {
	e := newTestEnv(t, map[string]string{"api.ts": "const respTime = 250;\n"})
	cli := e.cli(t, "watch:\n  debounce: 20ms\n")
	cli.Format = "json"

	out := &syncBuffer{}
	e.global.Out = out

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&WatchCmd{Path: e.src}).run(ctx, e.global, cli) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"from": "respTime"`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_RejectsFix(t *testing.T) {
	e := newTestEnv(t, nil)
	cli := e.cli(t, "")
	cli.Fix = true
	err := (&WatchCmd{}).Run(e.global, cli)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}
