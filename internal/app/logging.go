package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"learning-hub/internal/logging"
)

const (
	archivePrefix = "hubserver-"
	// keepArchives bounds how many rotated logs survive in data/logs.
	keepArchives = 10
)

// configureLogging archives the previous log file and points the default
// logger at stdout plus a fresh file at logPath.
func configureLogging(logPath string) (*os.File, error) {
	started := time.Now().UTC()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := rotateExistingLog(logPath, started); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.SetDefaultWriter(io.MultiWriter(os.Stdout, file))
	return file, nil
}

func rotateExistingLog(logPath string, started time.Time) error {
	info, err := os.Stat(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	logDir := filepath.Dir(logPath)
	archiveDir := filepath.Join(logDir, "logs")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("create log archive dir: %w", err)
	}

	baseTimestamp := started.Format("2006-01-02_15-04-05")
	baseName := fmt.Sprintf("%s%s.log", archivePrefix, baseTimestamp)
	destPath := filepath.Join(archiveDir, baseName)
	for i := 1; ; i++ {
		if _, err := os.Stat(destPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		destPath = filepath.Join(archiveDir, fmt.Sprintf("%s%s-%d.log", archivePrefix, baseTimestamp, i))
	}
	if err := os.Rename(logPath, destPath); err != nil {
		return fmt.Errorf("archive log file: %w", err)
	}
	return pruneArchives(archiveDir, keepArchives)
}

// pruneArchives removes all but the newest keep rotated logs. Archive names
// embed their timestamp, so lexical order is chronological.
func pruneArchives(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read log archive dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), archivePrefix) && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("prune log archive: %w", err)
		}
	}
	return nil
}
