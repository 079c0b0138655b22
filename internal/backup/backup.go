// Package backup takes point-in-time copies of the history database and
// prunes old ones.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/pathutil"
)

const (
	filePrefix = "antsim-history-"
	fileSuffix = ".db"
)

// Source is a database that can copy itself to a new file.
type Source interface {
	SnapshotTo(ctx context.Context, path string) error
}

// DefaultBackupDir returns the default backup directory (~/.antsim/backups/).
func DefaultBackupDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".antsim", "backups"), nil
}

// GenerateBackupPath creates a timestamped backup filename in dir. Names
// sort in creation order.
func GenerateBackupPath(dir string) string {
	ts := time.Now().UTC().Format("20060102-150405.000000")
	return filepath.Join(dir, filePrefix+ts+fileSuffix)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// Backup copies src to outputPath. When allowedDirs is non-empty the path
// must lie inside one of them.
func Backup(ctx context.Context, src Source, outputPath string, allowedDirs []string) (BackupInfo, error) {
	if len(allowedDirs) > 0 {
		if err := pathutil.ValidatePath(outputPath, allowedDirs); err != nil {
			return BackupInfo{}, fmt.Errorf("backup path rejected: %w", err)
		}
	}
	if _, err := os.Stat(outputPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup file %s already exists", pathutil.RedactPath(outputPath))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := src.SnapshotTo(ctx, outputPath); err != nil {
		return BackupInfo{}, err
	}
	if err := os.Chmod(outputPath, 0600); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to restrict backup permissions: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to stat backup: %w", err)
	}
	return BackupInfo{Path: outputPath, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// VerifyResult summarizes a readable backup.
type VerifyResult struct {
	Path  string `json:"path"`
	Runs  int    `json:"runs"`
	Ticks int    `json:"ticks"`
}

// Verify opens the backup at path as a history database and counts what
// it holds. The file must already exist.
func Verify(ctx context.Context, path string) (VerifyResult, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return VerifyResult{}, fmt.Errorf("backup %s does not exist", pathutil.RedactPath(path))
		}
		return VerifyResult{}, fmt.Errorf("failed to stat backup: %w", err)
	}

	db, err := history.OpenSQLite(ctx, path)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("backup is not a history database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to read runs: %w", err)
	}
	res := VerifyResult{Path: path, Runs: len(runs)}
	for _, r := range runs {
		res.Ticks += r.Ticks
	}
	return res, nil
}
