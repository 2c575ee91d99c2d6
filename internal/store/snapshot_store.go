package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
)

// SnapshotStore writes raw commit snapshots as JSON files under an hourly
// partition, for audit and replay separate from the rendered artifacts.
type SnapshotStore struct {
	root string
}

func NewSnapshotStore(root string) *SnapshotStore {
	return &SnapshotStore{root: strings.TrimSpace(root)}
}

// Save persists one collection run and returns the file path.
func (s *SnapshotStore) Save(snapshot gitcollect.Snapshot, timePeriod string) (string, error) {
	if s == nil || s.root == "" {
		return "", fmt.Errorf("snapshot store root is required")
	}
	if err := checkPathComponent(timePeriod); err != nil {
		return "", fmt.Errorf("invalid time period: %w", err)
	}

	dir := filepath.Join(s.root, "hourly")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	safeRepo := strings.NewReplacer("/", "_", "\\", "_").Replace(snapshot.Repository)
	filename := fmt.Sprintf("%s_%s_%s.json", safeRepo, timePeriod, snapshot.EndTime.Format("20060102_150405"))
	fullPath := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return fullPath, nil
}

// Load reads a snapshot back, for replaying a past collection run.
func (s *SnapshotStore) Load(path string) (gitcollect.Snapshot, error) {
	var snapshot gitcollect.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot, err
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}
