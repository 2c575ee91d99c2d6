package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/ShreerajShettyK/git_posts/internal/pipeline"
	"github.com/ShreerajShettyK/git_posts/internal/render"
	"github.com/ShreerajShettyK/git_posts/internal/store"
)

// Pipeline is the orchestrator surface the handlers call.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error)
	RunBatch(ctx context.Context, items []pipeline.BatchItem, mode render.Mode, audience string) []pipeline.BatchResult
	Collect(ctx context.Context, repository string, hours int) (gitcollect.Snapshot, error)
	Health(ctx context.Context) pipeline.HealthReport
}

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline  Pipeline
	artifacts *store.ArtifactStore
}

func New(p Pipeline, artifacts *store.ArtifactStore) *Server {
	return &Server{pipeline: p, artifacts: artifacts}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-post", s.handleGeneratePost)
	mux.HandleFunc("POST /generate-posts-batch", s.handleGenerateBatch)
	mux.HandleFunc("/collect-commits/{owner}/{repo}", s.handleCollect)
	mux.HandleFunc("GET /posts/{timePeriod}", s.handleListPosts)
	mux.HandleFunc("GET /posts/{timePeriod}/{filename}", s.handleGetPost)
	mux.HandleFunc("POST /api/generate-posts", s.handleAPIGeneratePosts)
	return mux
}

type generateRequest struct {
	Repository     string `json:"repository"`
	TimePeriod     string `json:"time_period"`
	Mode           string `json:"mode"`
	Category       string `json:"category"`
	TargetAudience string `json:"target_audience"`
}

type generateResponse struct {
	Repository       string          `json:"repository"`
	TimePeriod       string          `json:"time_period"`
	Category         string          `json:"category"`
	File             string          `json:"file"`
	CommitCount      int             `json:"commit_count"`
	GenerationTimeMS int64           `json:"generation_time_ms"`
	Document         render.Document `json:"document"`
}

func (s *Server) handleGeneratePost(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Repository) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "repository is required")
		return
	}
	if req.TimePeriod == "" {
		req.TimePeriod = "24h"
	}
	mode, err := render.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := s.pipeline.Run(r.Context(), pipeline.RunRequest{
		Repository:       req.Repository,
		TimePeriod:       req.TimePeriod,
		Mode:             mode,
		CategoryOverride: req.Category,
		TargetAudience:   req.TargetAudience,
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Repository:       req.Repository,
		TimePeriod:       req.TimePeriod,
		Category:         string(res.Category),
		File:             res.Artifact.Filename(),
		CommitCount:      res.CommitCount,
		GenerationTimeMS: res.GenerationTime.Milliseconds(),
		Document:         res.Document,
	})
}

type batchRequest struct {
	Repository     string               `json:"repository"`
	TimePeriods    []string             `json:"time_periods"`
	Repositories   []pipeline.BatchItem `json:"repositories"`
	Mode           string               `json:"mode"`
	TargetAudience string               `json:"target_audience"`
}

// batchItems accepts both body shapes: one repository with a time_periods
// list, or an explicit (repository, time_period) pair list.
func (req *batchRequest) batchItems() ([]pipeline.BatchItem, error) {
	items := make([]pipeline.BatchItem, 0, len(req.Repositories)+len(req.TimePeriods))
	for i, item := range req.Repositories {
		if strings.TrimSpace(item.Repository) == "" {
			return nil, fmt.Errorf("repositories[%d].repository is required", i)
		}
		if item.TimePeriod == "" {
			item.TimePeriod = "24h"
		}
		items = append(items, item)
	}
	if len(req.TimePeriods) > 0 {
		if strings.TrimSpace(req.Repository) == "" {
			return nil, fmt.Errorf("repository is required with time_periods")
		}
		for _, period := range req.TimePeriods {
			items = append(items, pipeline.BatchItem{Repository: req.Repository, TimePeriod: period})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("either repositories or repository+time_periods is required")
	}
	return items, nil
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	items, err := req.batchItems()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	mode, err := render.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	results := s.pipeline.RunBatch(r.Context(), items, mode, req.TargetAudience)

	succeeded := 0
	out := make([]map[string]any, 0, len(results))
	for _, res := range results {
		entry := map[string]any{
			"repository":  res.Repository,
			"time_period": res.TimePeriod,
		}
		if res.Error != nil {
			entry["error"] = res.Error
		} else {
			succeeded++
			entry["category"] = res.Result.Category
			entry["file"] = res.Result.Artifact.Filename()
			entry["commit_count"] = res.Result.CommitCount
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   out,
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "use GET or POST")
		return
	}
	repository := r.PathValue("owner") + "/" + r.PathValue("repo")

	hours := 2
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid hours parameter %q", raw))
			return
		}
		hours = n
	}

	snapshot, err := s.pipeline.Collect(r.Context(), repository, hours)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"repository":   snapshot.Repository,
		"commit_count": len(snapshot.Commits),
		"start_time":   snapshot.StartTime,
		"end_time":     snapshot.EndTime,
		"commits":      snapshot.Commits,
	})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	timePeriod := r.PathValue("timePeriod")
	infos, err := s.artifacts.List(timePeriod)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"time_period": timePeriod,
		"count":       len(infos),
		"posts":       infos,
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.artifacts.Read(r.PathValue("timePeriod"), r.PathValue("filename"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("post not found: %v", err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Health(r.Context()))
}

// apiGenerateResponse is the shape the display frontend consumes.
type apiGenerateResponse struct {
	Success      bool           `json:"success"`
	Posts        []apiPost      `json:"posts,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

type apiPost struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags"`
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
}

func apiPosts(posts []render.DocumentPost) []apiPost {
	out := make([]apiPost, 0, len(posts))
	for i, p := range posts {
		postType := "content"
		if i == 0 {
			postType = "summary"
		}
		out = append(out, apiPost{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Hashtags:  p.Hashtags,
			Timestamp: p.Timestamp,
			Type:      postType,
		})
	}
	return out
}

func (s *Server) handleAPIGeneratePosts(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiGenerateResponse{Success: false, ErrorMessage: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if strings.TrimSpace(req.Repository) == "" {
		writeJSON(w, http.StatusBadRequest, apiGenerateResponse{Success: false, ErrorMessage: "repository is required"})
		return
	}
	if req.TimePeriod == "" {
		req.TimePeriod = "24h"
	}

	res, err := s.pipeline.Run(r.Context(), pipeline.RunRequest{
		Repository:       req.Repository,
		TimePeriod:       req.TimePeriod,
		Mode:             render.ModePosts,
		CategoryOverride: req.Category,
		TargetAudience:   req.TargetAudience,
	})
	if err != nil {
		writeJSON(w, statusFor(err), apiGenerateResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, apiGenerateResponse{
		Success: true,
		Posts:   apiPosts(res.Document.Content.Posts),
		Metadata: map[string]any{
			"repository":         req.Repository,
			"time_period":        req.TimePeriod,
			"category":           res.Category,
			"template_used":      string(res.Category),
			"commit_count":       res.CommitCount,
			"files_changed":      res.Summary.FilesChanged,
			"lines_added":        res.Summary.LinesAdded,
			"lines_removed":      res.Summary.LinesRemoved,
			"contributors":       res.Summary.Contributors,
			"generated_at":       res.Artifact.CreatedAt.Format(time.RFC3339),
			"generation_time_ms": res.GenerationTime.Milliseconds(),
		},
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>git_posts</title></head>
<body>
<h1>git_posts</h1>
<p>Generates social posts and articles from recent repository activity.</p>
<ul>
<li>POST /generate-post</li>
<li>POST /generate-posts-batch</li>
<li>GET|POST /collect-commits/{owner}/{repo}?hours=N</li>
<li>GET /posts/{time_period}</li>
<li>GET /posts/{time_period}/{filename}</li>
<li>POST /api/generate-posts</li>
<li>GET /health</li>
</ul>
</body></html>`)
}

// errorBody is the structured error payload for every failure response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writePipelineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), pipeline.KindOf(err), err.Error())
}

// statusFor maps a pipeline failure class to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return http.StatusConflict
	}
	switch pipeline.KindOf(err) {
	case "invalid_category":
		return http.StatusBadRequest
	case "collection_error":
		var ce *gitcollect.CollectionError
		if errors.As(err, &ce) && ce.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case "generation_error", "generation_parse_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("could not encode response: %v", err)
	}
}
