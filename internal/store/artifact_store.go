package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArtifactStore persists rendered artifacts under a local root directory,
// partitioned by time period. Writes replace atomically so concurrent
// readers never observe a partial file.
type ArtifactStore struct {
	root string
}

func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{root: strings.TrimSpace(root)}
}

// ArtifactInfo describes one persisted artifact for listings.
type ArtifactInfo struct {
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
}

// Save writes an artifact payload under {root}/{timePeriod}/{filename} and
// returns the full path.
func (s *ArtifactStore) Save(timePeriod, filename string, data []byte) (string, error) {
	fullPath, err := s.pathFor(timePeriod, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
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

// List enumerates the artifacts of one time period, newest first. A missing
// partition is an empty listing, not an error.
func (s *ArtifactStore) List(timePeriod string) ([]ArtifactInfo, error) {
	dir, err := s.partitionFor(timePeriod)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ArtifactInfo{}, nil
		}
		return nil, err
	}

	infos := make([]ArtifactInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".json") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ArtifactInfo{
			Filename:  name,
			CreatedAt: fi.ModTime(),
			Size:      fi.Size(),
			URL:       fmt.Sprintf("/posts/%s/%s", timePeriod, name),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

// Read returns one persisted artifact verbatim plus its content type.
func (s *ArtifactStore) Read(timePeriod, filename string) ([]byte, string, error) {
	fullPath, err := s.pathFor(timePeriod, filename)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, "", err
	}
	contentType := "application/json"
	if strings.HasSuffix(filename, ".html") {
		contentType = "text/html; charset=utf-8"
	}
	return data, contentType, nil
}

func (s *ArtifactStore) partitionFor(timePeriod string) (string, error) {
	if s == nil || s.root == "" {
		return "", fmt.Errorf("artifact store root is required")
	}
	if err := checkPathComponent(timePeriod); err != nil {
		return "", fmt.Errorf("invalid time period: %w", err)
	}
	return filepath.Join(s.root, timePeriod), nil
}

func (s *ArtifactStore) pathFor(timePeriod, filename string) (string, error) {
	dir, err := s.partitionFor(timePeriod)
	if err != nil {
		return "", err
	}
	if err := checkPathComponent(filename); err != nil {
		return "", fmt.Errorf("invalid filename: %w", err)
	}
	return filepath.Join(dir, filename), nil
}

func checkPathComponent(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty path component")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return fmt.Errorf("unsafe path component %q", name)
	}
	return nil
}
