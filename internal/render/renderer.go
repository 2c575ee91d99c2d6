package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ShreerajShettyK/git_posts/internal/classify"
	"github.com/ShreerajShettyK/git_posts/internal/generate"
	"github.com/ShreerajShettyK/git_posts/internal/metrics"
	"github.com/google/uuid"
)

// Mode selects the rendered output shape.
type Mode string

const (
	ModePosts   Mode = "posts"
	ModeArticle Mode = "article"
)

// ParseMode validates a rendering mode string; empty defaults to posts.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePosts:
		return ModePosts, nil
	case ModeArticle:
		return ModeArticle, nil
	default:
		return "", fmt.Errorf("invalid mode %q, want posts or article", s)
	}
}

// Post is one short-form unit of a posts-mode artifact.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Hashtags  []string  `json:"hashtags"`
	Timestamp time.Time `json:"timestamp"`
}

// Artifact is the final output of one pipeline run.
type Artifact struct {
	Mode       Mode              `json:"mode"`
	Repository string            `json:"repository"`
	TimePeriod string            `json:"time_period"`
	Category   classify.Category `json:"category"`
	CreatedAt  time.Time         `json:"created_at"`
	Metrics    metrics.Summary   `json:"metrics"`

	HTML  string `json:"html,omitempty"`
	Posts []Post `json:"posts,omitempty"`
}

// Filename returns the persisted artifact name:
// {repo}_{window}_{timestamp}.html for articles, .json for post lists.
func (a *Artifact) Filename() string {
	safeRepo := strings.NewReplacer("/", "_", "\\", "_").Replace(a.Repository)
	ext := "json"
	if a.Mode == ModeArticle {
		ext = "html"
	}
	return fmt.Sprintf("%s_%s_%s.%s", safeRepo, a.TimePeriod, a.CreatedAt.Format("20060102_150405"), ext)
}

// RenderError reports a missing required content field. Generation validates
// its output, so reaching this is a defect upstream, not a user error.
type RenderError struct {
	Field string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering failed: content is missing required field %q", e.Field)
}

func (e *RenderError) Kind() string { return "render_error" }

// Renderer merges generated content and metrics into the category's
// presentation template.
type Renderer struct {
	maxPostLength int
}

func NewRenderer(maxPostLength int) *Renderer {
	if maxPostLength <= 0 {
		maxPostLength = 280
	}
	return &Renderer{maxPostLength: maxPostLength}
}

// newPostID is swapped in tests for stable IDs.
var newPostID = func() string { return uuid.NewString() }

// Render produces the final artifact for one run.
func (r *Renderer) Render(repository, timePeriod string, content generate.Content, summary metrics.Summary, category classify.Category, mode Mode) (*Artifact, error) {
	if err := checkRequired(content); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Mode:       mode,
		Repository: repository,
		TimePeriod: timePeriod,
		Category:   category,
		CreatedAt:  time.Now().UTC(),
		Metrics:    summary,
	}

	switch mode {
	case ModeArticle:
		html, err := r.renderArticle(content, summary, category)
		if err != nil {
			return nil, err
		}
		artifact.HTML = html
	default:
		artifact.Posts = r.renderPosts(content, artifact.CreatedAt)
	}
	return artifact, nil
}

func checkRequired(content generate.Content) error {
	switch {
	case strings.TrimSpace(content.Title) == "":
		return &RenderError{Field: "title"}
	case strings.TrimSpace(content.Summary) == "":
		return &RenderError{Field: "summary"}
	case strings.TrimSpace(content.DetailedExplanation) == "":
		return &RenderError{Field: "detailed_explanation"}
	}
	return nil
}

// renderPosts segments the narrative into posts that fit the per-post length
// budget. The first post leads with the title and summary.
func (r *Renderer) renderPosts(content generate.Content, createdAt time.Time) []Post {
	posts := []Post{{
		ID:        newPostID(),
		Title:     content.Title,
		Content:   truncate(content.Summary, r.maxPostLength),
		Hashtags:  content.Hashtags,
		Timestamp: createdAt,
	}}

	for _, segment := range segmentText(content.DetailedExplanation, r.maxPostLength) {
		posts = append(posts, Post{
			ID:        newPostID(),
			Content:   segment,
			Hashtags:  content.Hashtags,
			Timestamp: createdAt,
		})
	}

	for _, highlight := range content.TechnicalHighlights {
		posts = append(posts, Post{
			ID:        newPostID(),
			Content:   truncate("Highlight: "+highlight, r.maxPostLength),
			Hashtags:  content.Hashtags,
			Timestamp: createdAt,
		})
	}
	return posts
}

// segmentText splits text into chunks of at most limit runes, preferring
// word boundaries.
func segmentText(text string, limit int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var segments []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			segments = append(segments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}

// progressPercent is a decorative activity gauge shown in article headers.
// It is a stable, monotonic formula over commit count, not a measurement.
func progressPercent(totalCommits int) int {
	p := 75 + totalCommits*5
	if p > 95 {
		p = 95
	}
	return p
}

var articleTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Content.Title}}</title>
<style>
body { font-family: -apple-system, Arial, sans-serif; max-width: 720px; margin: 0 auto; padding: 24px; color: #1f2937; }
.badge { display: inline-block; padding: 4px 12px; border-radius: 999px; color: #fff; background: {{.Theme.Accent}}; }
.metrics { display: flex; gap: 16px; margin: 16px 0; }
.metric { background: #f3f4f6; border-radius: 8px; padding: 12px; text-align: center; flex: 1; }
.metric b { display: block; font-size: 1.4em; }
.bar { background: #e5e7eb; border-radius: 4px; height: 8px; }
.bar span { display: block; height: 8px; border-radius: 4px; background: {{.Theme.Accent}}; width: {{.Progress}}%; }
.hashtags { color: {{.Theme.Accent}}; }
pre { background: #111827; color: #f9fafb; padding: 12px; border-radius: 8px; overflow-x: auto; }
</style>
</head>
<body>
<span class="badge">{{.Theme.Badge}} {{.Theme.Label}}</span>
<h1>{{.Content.Title}}</h1>
<p><em>{{.Content.Summary}}</em></p>
<div class="metrics">
<div class="metric"><b>{{.Metrics.TotalCommits}}</b>commits</div>
<div class="metric"><b>{{.Metrics.FilesChanged}}</b>files</div>
<div class="metric"><b>+{{.Metrics.LinesAdded}}</b>added</div>
<div class="metric"><b>-{{.Metrics.LinesRemoved}}</b>removed</div>
<div class="metric"><b>{{.Metrics.Contributors}}</b>contributors</div>
</div>
<div class="bar"><span></span></div>
<p>{{.Content.DetailedExplanation}}</p>
{{if .Content.TechnicalHighlights}}<h2>Technical highlights</h2>
<ul>{{range .Content.TechnicalHighlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Content.UserBenefits}}<h2>What this means for you</h2>
<ul>{{range .Content.UserBenefits}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{range .Content.CodeSnippets}}<h3>{{.Description}}</h3><pre>{{.Code}}</pre>{{end}}
<p class="hashtags">{{range .Content.Hashtags}}{{.}} {{end}}</p>
</body>
</html>
`))

func (r *Renderer) renderArticle(content generate.Content, summary metrics.Summary, category classify.Category) (string, error) {
	var b strings.Builder
	err := articleTemplate.Execute(&b, struct {
		Content  generate.Content
		Metrics  metrics.Summary
		Theme    theme
		Progress int
	}{
		Content:  content,
		Metrics:  summary,
		Theme:    themeFor(category),
		Progress: progressPercent(summary.TotalCommits),
	})
	if err != nil {
		return "", fmt.Errorf("executing article template: %w", err)
	}
	return b.String(), nil
}
