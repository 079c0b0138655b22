package backup

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/antsim/internal/history"
)

// seedHistory creates a history database with one run of n ticks.
func seedHistory(t *testing.T, n int) *history.SQLiteRecorder {
	t.Helper()
	ctx := context.Background()
	db, err := history.OpenSQLite(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	id, err := db.StartRun(ctx, history.Run{Seed: 3, NumAnts: 2, Width: 5, Height: 5, StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	for i := 1; i <= n; i++ {
		if err := db.RecordTick(ctx, history.TickStats{RunID: id, Tick: i, Moved: 2}); err != nil {
			t.Fatalf("RecordTick: %v", err)
		}
	}
	return db
}

func TestBackupVerify_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := seedHistory(t, 4)
	dir := t.TempDir()

	path := GenerateBackupPath(dir)
	info, err := Backup(ctx, db, path, nil)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if info.Path != path || info.Size == 0 {
		t.Errorf("info = %+v", info)
	}

	res, err := Verify(ctx, path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Runs != 1 || res.Ticks != 4 {
		t.Errorf("verify = %+v, want 1 run with 4 ticks", res)
	}
}

func TestBackup_RefusesExistingFile(t *testing.T) {
	db := seedHistory(t, 1)
	path := filepath.Join(t.TempDir(), "antsim-history-x.db")
	if err := os.WriteFile(path, []byte("keep me"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Backup(context.Background(), db, path, nil); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already exists error, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep me" {
		t.Error("existing file was overwritten")
	}
}

func TestBackup_PathValidation(t *testing.T) {
	db := seedHistory(t, 1)
	allowed := t.TempDir()
	outside := t.TempDir()

	if _, err := Backup(context.Background(), db, GenerateBackupPath(outside), []string{allowed}); err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Errorf("expected path rejection, got %v", err)
	}
	if _, err := Backup(context.Background(), db, GenerateBackupPath(filepath.Join(allowed, "sub")), []string{allowed}); err != nil {
		t.Errorf("path inside allowed dir rejected: %v", err)
	}
}

func TestBackup_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permissions not enforced on Windows")
	}
	db := seedHistory(t, 1)
	path := GenerateBackupPath(t.TempDir())
	if _, err := Backup(context.Background(), db, path, nil); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("backup permissions = %o, want 600", perm)
	}
}

func TestVerify_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Verify(context.Background(), filepath.Join(dir, "missing.db")); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("missing file: got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte(strings.Repeat("not a database ", 100)), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(context.Background(), garbage); err == nil {
		t.Error("expected error for a file that is not a database")
	}
}

func TestGenerateBackupPath(t *testing.T) {
	dir := t.TempDir()
	first := GenerateBackupPath(dir)
	time.Sleep(2 * time.Millisecond)
	second := GenerateBackupPath(dir)

	if filepath.Dir(first) != dir || !isBackupFile(filepath.Base(first)) {
		t.Errorf("unexpected path %s", first)
	}
	if !(filepath.Base(second) > filepath.Base(first)) {
		t.Errorf("names should sort in creation order: %s then %s", first, second)
	}
}
