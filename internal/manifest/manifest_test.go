package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartAndFinishRun(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartRun("run-1", `{"track_name":"default"}`, "v1.2.3"))
	require.NoError(t, db.FinishRun("run-1", nil))

	var status, gtVersion string
	require.NoError(t, db.QueryRow(`SELECT status, groundtruth_version FROM run WHERE run_id = ?`, "run-1").Scan(&status, &gtVersion))
	require.Equal(t, "completed", status)
	require.Equal(t, "v1.2.3", gtVersion)
}

func TestFinishRunRecordsError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartRun("run-2", "{}", "test"))
	require.NoError(t, db.FinishRun("run-2", errors.New("mesh load failed")))

	var status, errText string
	require.NoError(t, db.QueryRow(`SELECT status, error FROM run WHERE run_id = ?`, "run-2").Scan(&status, &errText))
	require.Equal(t, "failed", status)
	require.Equal(t, "mesh load failed", errText)
}

func TestRecordLifecycleAndCompletedCount(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartRun("run-3", "{}", "test"))
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, db.RecordRayCastDone("run-3", id))
	}
	for _, id := range []string{"1", "2"} {
		require.NoError(t, db.RecordGenerateDone("run-3", id))
	}

	n, err := db.CompletedRecordCount("run-3")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestHeartbeatUpserts(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartRun("run-4", "{}", "test"))
	require.NoError(t, db.Heartbeat("run-4", "raycast", 0))
	require.NoError(t, db.Heartbeat("run-4", "raycast", 0))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM heartbeat WHERE run_id = ?`, "run-4").Scan(&count))
	require.Equal(t, 1, count, "heartbeat upsert should not duplicate rows")
}
