// Package archive keeps timestamped JSON snapshots of the translation
// history next to the local database before it is cleared.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/marghivasal/internal/history"
)

// ArchiveHistory writes records to <stateDir>/archive/history-<timestamp>.json
// and returns the file path
func ArchiveHistory(stateDir string, records []history.Record, now time.Time) (string, error) {
	archiveDir := filepath.Join(stateDir, "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("history-%s.json", now.Format("20060102-150405")))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		// Add microseconds to make it unique
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("history-%s.json", now.Format("20060102-150405.000000")))
	}

	if records == nil {
		records = []history.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}

	// O_EXCL keeps an existing snapshot from being overwritten
	f, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return archivePath, nil
}
