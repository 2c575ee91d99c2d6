package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ShreerajShettyK/git_posts/internal/render"
)

// BatchItem names one (repository, window) pair of a batch run.
type BatchItem struct {
	Repository string `json:"repository"`
	TimePeriod string `json:"time_period"`
}

// BatchResult carries the outcome of one batch item. Exactly one of Result
// and Error is set.
type BatchResult struct {
	Repository string      `json:"repository"`
	TimePeriod string      `json:"time_period"`
	Result     *RunResult  `json:"result,omitempty"`
	Error      *ErrorEntry `json:"error,omitempty"`
}

// ErrorEntry is a machine-checkable failure record for one batch item.
type ErrorEntry struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RunBatch runs every item independently under the configured concurrency
// cap. One item failing never prevents the others from completing; each
// result slot reports success or the item's own failure.
func (o *Orchestrator) RunBatch(ctx context.Context, items []BatchItem, mode render.Mode, audience string) []BatchResult {
	results := make([]BatchResult, len(items))
	sem := make(chan struct{}, o.batchLimit)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item BatchItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = BatchResult{Repository: item.Repository, TimePeriod: item.TimePeriod}
			res, err := o.Run(ctx, RunRequest{
				Repository:     item.Repository,
				TimePeriod:     item.TimePeriod,
				Mode:           mode,
				TargetAudience: audience,
			})
			if err != nil {
				results[i].Error = &ErrorEntry{Kind: KindOf(err), Message: err.Error()}
				return
			}
			results[i].Result = res
		}(i, item)
	}
	wg.Wait()
	return results
}

func artifactPayload(artifact *render.Artifact, document render.Document) ([]byte, error) {
	if artifact.Mode == render.ModeArticle {
		return []byte(artifact.HTML), nil
	}
	if err := render.ValidateDocument(document); err != nil {
		return nil, err
	}
	return json.MarshalIndent(document, "", "  ")
}
