package gitcollect

import (
	"fmt"
	"time"
)

// CommitRecord is one normalized commit fetched from GitHub. It is immutable
// once fetched; a pipeline run owns its own slice of records.
type CommitRecord struct {
	SHA          string    `json:"sha" bson:"sha"`
	Message      string    `json:"message" bson:"message"`
	Author       string    `json:"author" bson:"author"`
	AuthorEmail  string    `json:"author_email,omitempty" bson:"author_email,omitempty"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
	Repository   string    `json:"repository" bson:"repository"`
	Files        []string  `json:"files" bson:"files"`
	LinesAdded   int       `json:"lines_added" bson:"lines_added"`
	LinesRemoved int       `json:"lines_removed" bson:"lines_removed"`
}

// Snapshot bundles the records of one collection run for persistence.
type Snapshot struct {
	Repository string         `json:"repository" bson:"repository"`
	StartTime  time.Time      `json:"start_time" bson:"start_time"`
	EndTime    time.Time      `json:"end_time" bson:"end_time"`
	Commits    []CommitRecord `json:"commits" bson:"commits"`
}

// CollectionError reports an upstream GitHub failure after retry exhaustion.
type CollectionError struct {
	Repository string
	Status     int
	Err        error
}

func (e *CollectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("collecting commits from %s: upstream status %d: %v", e.Repository, e.Status, e.Err)
	}
	return fmt.Sprintf("collecting commits from %s: %v", e.Repository, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

func (e *CollectionError) Kind() string { return "collection_error" }
