package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ShreerajShettyK/git_posts/internal/pipeline"
	"github.com/ShreerajShettyK/git_posts/internal/render"
)

// Runner is the pipeline surface the scheduler drives.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error)
}

// Scheduler periodically runs the pipeline for a fixed repository list. Runs
// that overlap a still-executing run for the same key are skipped, never
// queued, so a slow upstream cannot build a backlog.
type Scheduler struct {
	runner     Runner
	repos      []string
	interval   time.Duration
	timePeriod string
	mode       render.Mode
}

func New(runner Runner, repos []string, interval time.Duration, mode render.Mode) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:     runner,
		repos:      repos,
		interval:   interval,
		timePeriod: periodFor(interval),
		mode:       mode,
	}
}

// periodFor expresses the polling interval as the lookback window, so each
// tick covers exactly the time since the previous one.
func periodFor(interval time.Duration) string {
	hours := int(interval.Round(time.Hour) / time.Hour)
	if hours < 1 {
		hours = 1
	}
	if hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	return fmt.Sprintf("%dh", hours)
}

// Start runs the tick loop until ctx is cancelled. It blocks; callers run it
// in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.repos) == 0 {
		log.Println("scheduler: no repositories configured, not starting")
		return
	}
	log.Printf("scheduler: running %d repositories every %s", len(s.repos), s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopping")
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	for _, repo := range s.repos {
		res, err := s.runner.Run(ctx, pipeline.RunRequest{
			Repository: repo,
			TimePeriod: s.timePeriod,
			Mode:       s.mode,
		})
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			log.Printf("scheduler: %s %s still running, skipping this tick", repo, s.timePeriod)
		case err != nil:
			log.Printf("scheduler: run failed for %s: %v", repo, err)
		default:
			log.Printf("scheduler: generated %s for %s (%d commits)", res.Artifact.Filename(), repo, res.CommitCount)
		}
	}
}
