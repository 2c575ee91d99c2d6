package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ShreerajShettyK/git_posts/internal/classify"
	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/ShreerajShettyK/git_posts/internal/metrics"
)

// maxPromptCommits bounds how much of the batch is embedded in the prompt.
const maxPromptCommits = 20

// Generator turns a classified commit batch into structured post content.
type Generator struct {
	client TextGenerator
}

func NewGenerator(client TextGenerator) *Generator {
	return &Generator{client: client}
}

// Request carries the inputs of one generation run.
type Request struct {
	Repository     string
	Commits        []gitcollect.CommitRecord
	Summary        metrics.Summary
	Category       classify.Category
	TargetAudience string
}

type promptCommit struct {
	Message      string   `json:"message"`
	Author       string   `json:"author"`
	Files        []string `json:"files,omitempty"`
	LinesAdded   int      `json:"lines_added"`
	LinesRemoved int      `json:"lines_removed"`
}

type promptInput struct {
	Repository string          `json:"repository"`
	Category   string          `json:"category"`
	Audience   string          `json:"target_audience"`
	Metrics    metrics.Summary `json:"metrics"`
	Commits    []promptCommit  `json:"commits"`
}

const basePrompt = `You are a developer-relations writer. Summarize the commit activity below
as a social/blog update for the %s audience. The activity is categorized as
%q; keep the tone appropriate for that category.

Respond with a single JSON object with exactly these fields:
  "title": string,
  "summary": string (1-2 sentences),
  "detailed_explanation": string (a few short paragraphs),
  "technical_highlights": array of strings,
  "user_benefits": array of strings,
  "code_snippets": array of {"language","code","description"} objects (may be empty),
  "tags": array of strings,
  "hashtags": array of strings

Do not invent commits that are not in the input.`

const strictSuffix = `

IMPORTANT: the previous response could not be parsed. Return ONLY the JSON
object described above, with all required fields present, no markdown fences
and no commentary.`

// Generate builds the prompt, calls the text service, and parses the
// response. A malformed response gets one strict-reformat retry; if that also
// fails, a deterministic summary built from the metrics takes its place so
// the pipeline never aborts just because the model misbehaved. Auth and
// quota failures are fatal and surface as *GenerationError.
func (g *Generator) Generate(ctx context.Context, req Request) (Content, error) {
	if len(req.Commits) == 0 {
		return NoActivityContent(req.Repository), nil
	}

	prompt := fmt.Sprintf(basePrompt, audienceOr(req.TargetAudience), req.Category)
	input := buildPromptInput(req)

	content, err := g.generateOnce(ctx, prompt, input)
	if err == nil {
		return content, nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return Content{}, err
	}

	log.Printf("generate: retrying with strict formatting for %s: %v", req.Repository, err)
	content, err = g.generateOnce(ctx, prompt+strictSuffix, input)
	if err == nil {
		return content, nil
	}
	if errors.As(err, &genErr) {
		return Content{}, err
	}

	log.Printf("generate: falling back to deterministic summary for %s: %v", req.Repository, err)
	return FallbackContent(req.Repository, req.Summary, req.Category), nil
}

func (g *Generator) generateOnce(ctx context.Context, prompt string, input promptInput) (Content, error) {
	raw, err := g.client.GenerateJSON(ctx, prompt, input)
	if err != nil {
		return Content{}, err
	}

	var content Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return Content{}, &GenerationParseError{Err: err}
	}
	if err := content.validate(); err != nil {
		return Content{}, &GenerationParseError{Err: err}
	}
	content.normalize()
	return content, nil
}

// Ping reports text-service reachability for the health check.
func (g *Generator) Ping(ctx context.Context) error {
	return g.client.Ping(ctx)
}

func buildPromptInput(req Request) promptInput {
	commits := make([]promptCommit, 0, maxPromptCommits)
	for _, c := range req.Commits {
		if len(commits) == maxPromptCommits {
			break
		}
		files := c.Files
		if len(files) > 5 {
			files = files[:5]
		}
		commits = append(commits, promptCommit{
			Message:      firstLine(c.Message, 100),
			Author:       c.Author,
			Files:        files,
			LinesAdded:   c.LinesAdded,
			LinesRemoved: c.LinesRemoved,
		})
	}
	return promptInput{
		Repository: req.Repository,
		Category:   string(req.Category),
		Audience:   audienceOr(req.TargetAudience),
		Metrics:    req.Summary,
		Commits:    commits,
	}
}

// FallbackContent is the deterministic summary used when the text service
// returns unusable output twice in a row.
func FallbackContent(repository string, summary metrics.Summary, category classify.Category) Content {
	content := Content{
		Title:   fmt.Sprintf("Updates from %s", repository),
		Summary: fmt.Sprintf("Latest development activity with %d commits.", summary.TotalCommits),
		DetailedExplanation: fmt.Sprintf(
			"The team landed %d commits touching %d files, adding %d lines and removing %d across %d contributors. The changes in this window lean toward %s work.",
			summary.TotalCommits, summary.FilesChanged, summary.LinesAdded, summary.LinesRemoved, summary.Contributors, category),
		TechnicalHighlights: []string{
			fmt.Sprintf("%d commits with %d files updated", summary.TotalCommits, summary.FilesChanged),
		},
		UserBenefits: []string{"Improved stability", "Ongoing maintenance"},
		CodeSnippets: []CodeSnippet{},
		Tags:         []string{string(category)},
		Hashtags:     []string{"#opensource", "#development", "#" + string(category)},
	}
	content.normalize()
	return content
}

// NoActivityContent is returned for an empty commit window; an empty window
// is a valid outcome, not an error.
func NoActivityContent(repository string) Content {
	content := Content{
		Title:               fmt.Sprintf("No recent activity in %s", repository),
		Summary:             "No commits were recorded in this time window.",
		DetailedExplanation: "The repository had no commit activity during the selected period. Check back after the next development cycle.",
		TechnicalHighlights: []string{},
		UserBenefits:        []string{},
		CodeSnippets:        []CodeSnippet{},
		Tags:                []string{"quiet-period"},
		Hashtags:            []string{"#opensource"},
	}
	content.normalize()
	return content
}

func audienceOr(audience string) string {
	if strings.TrimSpace(audience) == "" {
		return "general"
	}
	return audience
}

func firstLine(s string, limit int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
