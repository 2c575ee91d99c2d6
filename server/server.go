package server

import (
	"context"
	"log"
	"net/http"

	"github.com/ShreerajShettyK/git_posts/config"
	"github.com/ShreerajShettyK/git_posts/internal/db"
	"github.com/ShreerajShettyK/git_posts/internal/generate"
	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/ShreerajShettyK/git_posts/internal/pipeline"
	"github.com/ShreerajShettyK/git_posts/internal/render"
	"github.com/ShreerajShettyK/git_posts/internal/schedule"
	"github.com/ShreerajShettyK/git_posts/internal/store"
)

// Function variables to allow swapping with mocks in tests
var LoadConfigFunc = config.LoadConfig
var InitializeMongoDBFunc = db.InitializeMongoDB
var ListenAndServeFunc = http.ListenAndServe

func StartServer() {
	cfg, err := LoadConfigFunc()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	// MongoDB mirroring of commit snapshots is optional; local disk
	// persistence always runs.
	mongoEnabled := cfg.MongoDBURI != ""
	if mongoEnabled {
		if err := InitializeMongoDBFunc(cfg.MongoDBURI); err != nil {
			log.Fatalf("could not initialize MongoDB: %v", err)
		}
	}

	ctx := context.Background()
	gemini, err := generate.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("could not initialize text generation client: %v", err)
	}

	collector := gitcollect.NewCollector(nil, nil, cfg.GitHubToken)
	generator := generate.NewGenerator(gemini)
	renderer := render.NewRenderer(cfg.MaxPostLength)
	artifacts := store.NewArtifactStore(cfg.OutputDir)
	snapshots := store.NewSnapshotStore(cfg.CommitDataDir)

	orchestrator := pipeline.NewOrchestrator(collector, generator, renderer, artifacts, snapshots, pipeline.Options{
		DefaultAudience:  cfg.TargetAudience,
		MongoEnabled:     mongoEnabled,
		BatchConcurrency: cfg.BatchConcurrency,
	})

	if len(cfg.Repos) > 0 {
		scheduler := schedule.New(orchestrator, cfg.Repos, cfg.PollInterval, render.ModePosts)
		go scheduler.Start(ctx)
	}

	srv := New(orchestrator, artifacts)
	log.Printf("Server is running on %s...", cfg.ListenAddr)
	if err := ListenAndServeFunc(cfg.ListenAddr, srv.Handler()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
