package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ShreerajShettyK/git_posts/internal/classify"
	"github.com/ShreerajShettyK/git_posts/internal/db"
	"github.com/ShreerajShettyK/git_posts/internal/generate"
	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/ShreerajShettyK/git_posts/internal/metrics"
	"github.com/ShreerajShettyK/git_posts/internal/render"
	"github.com/ShreerajShettyK/git_posts/internal/store"
)

// CommitSource abstracts the commit collector for testing.
type CommitSource interface {
	FetchCommitsSince(ctx context.Context, repository string, window time.Duration) ([]gitcollect.CommitRecord, error)
	CheckRateLimit(ctx context.Context) (int, error)
}

// ContentSource abstracts the content generator for testing.
type ContentSource interface {
	Generate(ctx context.Context, req generate.Request) (generate.Content, error)
	Ping(ctx context.Context) error
}

// ErrRunInProgress is returned when a run for the same (repository, window)
// key has not completed yet. Triggered runs skip rather than queue.
var ErrRunInProgress = errors.New("a run for this repository and window is already in progress")

// generationTimeout bounds one text-service call; swapped in tests.
var generationTimeout = 90 * time.Second

// Orchestrator sequences collector, aggregator, classifier, generator and
// renderer for one (repository, window) pair and persists the result.
type Orchestrator struct {
	collector CommitSource
	generator ContentSource
	renderer  *render.Renderer
	artifacts *store.ArtifactStore
	snapshots *store.SnapshotStore

	defaultAudience string
	mongoEnabled    bool
	batchLimit      int

	mu         sync.Mutex
	inProgress map[string]struct{}
}

type Options struct {
	DefaultAudience  string
	MongoEnabled     bool
	BatchConcurrency int
}

func NewOrchestrator(collector CommitSource, generator ContentSource, renderer *render.Renderer, artifacts *store.ArtifactStore, snapshots *store.SnapshotStore, opts Options) *Orchestrator {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.DefaultAudience == "" {
		opts.DefaultAudience = "general"
	}
	return &Orchestrator{
		collector:       collector,
		generator:       generator,
		renderer:        renderer,
		artifacts:       artifacts,
		snapshots:       snapshots,
		defaultAudience: opts.DefaultAudience,
		mongoEnabled:    opts.MongoEnabled,
		batchLimit:      opts.BatchConcurrency,
		inProgress:      make(map[string]struct{}),
	}
}

// RunRequest is one pipeline invocation.
type RunRequest struct {
	Repository       string
	TimePeriod       string // e.g. "2h", "24h", "7d"
	Mode             render.Mode
	CategoryOverride string
	TargetAudience   string
}

// RunResult is the outcome of one successful pipeline run.
type RunResult struct {
	Artifact       *render.Artifact
	Document       render.Document
	Content        generate.Content
	Category       classify.Category
	Summary        metrics.Summary
	FilePath       string
	CommitCount    int
	GenerationTime time.Duration
}

// ParseTimePeriod turns "2h"/"24h"/"7d" into a lookback duration.
func ParseTimePeriod(period string) (time.Duration, error) {
	period = strings.TrimSpace(period)
	if len(period) < 2 {
		return 0, fmt.Errorf("invalid time period %q, use forms like 2h, 24h or 7d", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid time period %q, use forms like 2h, 24h or 7d", period)
	}
	switch period[len(period)-1] {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time period %q, use forms like 2h, 24h or 7d", period)
	}
}

// Run executes the full pipeline for one request. Stages run strictly in
// order; each consumes the prior stage's complete output.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	window, err := ParseTimePeriod(req.TimePeriod)
	if err != nil {
		return nil, err
	}
	// An invalid override is rejected before any network calls.
	if req.CategoryOverride != "" {
		if _, err := classify.ParseCategory(req.CategoryOverride); err != nil {
			return nil, err
		}
	}

	key := req.Repository + "|" + req.TimePeriod
	if !o.tryAcquire(key) {
		return nil, ErrRunInProgress
	}
	defer o.release(key)

	started := time.Now()

	commits, err := o.collector.FetchCommitsSince(ctx, req.Repository, window)
	if err != nil {
		return nil, err
	}
	o.persistSnapshot(ctx, req, window, commits)

	summary := metrics.Aggregate(commits)

	category, err := classify.Classify(commits, req.CategoryOverride)
	if err != nil {
		return nil, err
	}

	audience := req.TargetAudience
	if audience == "" {
		audience = o.defaultAudience
	}
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	content, err := o.generator.Generate(genCtx, generate.Request{
		Repository:     req.Repository,
		Commits:        commits,
		Summary:        summary,
		Category:       category,
		TargetAudience: audience,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	artifact, err := o.renderer.Render(req.Repository, req.TimePeriod, content, summary, category, req.Mode)
	if err != nil {
		return nil, err
	}

	document := render.BuildDocument(artifact, content.Title, content.Summary,
		content.DetailedExplanation, content.TechnicalHighlights, content.Hashtags)

	path, err := o.persistArtifact(artifact, document)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Artifact:       artifact,
		Document:       document,
		Content:        content,
		Category:       category,
		Summary:        summary,
		FilePath:       path,
		CommitCount:    len(commits),
		GenerationTime: time.Since(started),
	}, nil
}

// Collect runs only the collector stage and persists the snapshot.
func (o *Orchestrator) Collect(ctx context.Context, repository string, hours int) (gitcollect.Snapshot, error) {
	if hours <= 0 {
		hours = 2
	}
	window := time.Duration(hours) * time.Hour
	commits, err := o.collector.FetchCommitsSince(ctx, repository, window)
	if err != nil {
		return gitcollect.Snapshot{}, err
	}

	req := RunRequest{Repository: repository, TimePeriod: fmt.Sprintf("%dh", hours)}
	o.persistSnapshot(ctx, req, window, commits)

	end := time.Now().UTC()
	return gitcollect.Snapshot{
		Repository: repository,
		StartTime:  end.Add(-window),
		EndTime:    end,
		Commits:    commits,
	}, nil
}

func (o *Orchestrator) persistSnapshot(ctx context.Context, req RunRequest, window time.Duration, commits []gitcollect.CommitRecord) {
	end := time.Now().UTC()
	snapshot := gitcollect.Snapshot{
		Repository: req.Repository,
		StartTime:  end.Add(-window),
		EndTime:    end,
		Commits:    commits,
	}

	// Snapshots are audit data; failures are logged, not fatal to the run.
	if o.snapshots != nil {
		if _, err := o.snapshots.Save(snapshot, req.TimePeriod); err != nil {
			log.Printf("could not save commit snapshot for %s: %v", req.Repository, err)
		}
	}
	if o.mongoEnabled {
		if err := db.SaveSnapshot(ctx, snapshot); err != nil {
			log.Printf("could not save commit snapshot to MongoDB for %s: %v", req.Repository, err)
		}
	}
}

func (o *Orchestrator) persistArtifact(artifact *render.Artifact, document render.Document) (string, error) {
	payload, err := artifactPayload(artifact, document)
	if err != nil {
		return "", err
	}
	return o.artifacts.Save(artifact.TimePeriod, artifact.Filename(), payload)
}

func (o *Orchestrator) tryAcquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, held := o.inProgress[key]; held {
		return false
	}
	o.inProgress[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	delete(o.inProgress, key)
	o.mu.Unlock()
}
