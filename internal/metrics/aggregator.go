package metrics

import (
	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
)

// Summary is a read-only aggregate over one batch of commit records.
type Summary struct {
	TotalCommits int `json:"total_commits" bson:"total_commits"`
	FilesChanged int `json:"files_changed" bson:"files_changed"`
	LinesAdded   int `json:"lines_added" bson:"lines_added"`
	LinesRemoved int `json:"lines_removed" bson:"lines_removed"`
	Contributors int `json:"contributors" bson:"contributors"`
}

// Aggregate folds a commit batch into a Summary. Distinct file and
// contributor counts are set unions across the batch, so a file touched by
// several commits is counted once. An empty batch yields an all-zero summary.
func Aggregate(commits []gitcollect.CommitRecord) Summary {
	files := make(map[string]struct{})
	contributors := make(map[string]struct{})

	var summary Summary
	for _, commit := range commits {
		summary.TotalCommits++
		summary.LinesAdded += commit.LinesAdded
		summary.LinesRemoved += commit.LinesRemoved
		for _, f := range commit.Files {
			files[f] = struct{}{}
		}
		author := commit.AuthorEmail
		if author == "" {
			author = commit.Author
		}
		if author != "" {
			contributors[author] = struct{}{}
		}
	}
	summary.FilesChanged = len(files)
	summary.Contributors = len(contributors)
	return summary
}
