package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ShreerajShettyK/git_posts/internal/classify"
	"github.com/ShreerajShettyK/git_posts/internal/generate"
	"github.com/ShreerajShettyK/git_posts/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func stablePostIDs(t *testing.T) {
	t.Helper()
	original := newPostID
	n := 0
	newPostID = func() string {
		n++
		return fmt.Sprintf("post-%d", n)
	}
	t.Cleanup(func() { newPostID = original })
}

func sampleContent() generate.Content {
	return generate.Content{
		Title:               "Race conditions squashed",
		Summary:             "Two concurrency bugs fixed.",
		DetailedExplanation: "The collector no longer races on shutdown. The store now replaces files atomically.",
		TechnicalHighlights: []string{"atomic file replacement"},
		UserBenefits:        []string{"fewer crashes"},
		CodeSnippets:        []generate.CodeSnippet{},
		Tags:                []string{"stability"},
		Hashtags:            []string{"#BugFix", "#golang"},
	}
}

func sampleSummary() metrics.Summary {
	return metrics.Summary{TotalCommits: 3, FilesChanged: 4, LinesAdded: 120, LinesRemoved: 30, Contributors: 2}
}

func TestRender_PostsMode(t *testing.T) {
	stablePostIDs(t)

	artifact, err := NewRenderer(280).Render("acme/demo", "24h", sampleContent(), sampleSummary(), classify.CategoryBugfix, ModePosts)
	assert.NoError(t, err)
	assert.Equal(t, ModePosts, artifact.Mode)
	assert.Empty(t, artifact.HTML)
	assert.NotEmpty(t, artifact.Posts)

	lead := artifact.Posts[0]
	assert.Equal(t, "post-1", lead.ID)
	assert.Equal(t, "Race conditions squashed", lead.Title)
	assert.Equal(t, "Two concurrency bugs fixed.", lead.Content)
	assert.Equal(t, []string{"#BugFix", "#golang"}, lead.Hashtags)

	for _, p := range artifact.Posts {
		assert.LessOrEqual(t, len(p.Content), 280)
	}
}

func TestRender_PostsModeSegmentsLongNarrative(t *testing.T) {
	stablePostIDs(t)

	content := sampleContent()
	content.DetailedExplanation = strings.Repeat("lots of narrative here. ", 40)
	content.TechnicalHighlights = nil

	artifact, err := NewRenderer(120).Render("acme/demo", "24h", content, sampleSummary(), classify.CategoryBugfix, ModePosts)
	assert.NoError(t, err)
	// Lead post plus several narrative segments.
	assert.Greater(t, len(artifact.Posts), 3)
	for _, p := range artifact.Posts {
		assert.LessOrEqual(t, len(p.Content), 120)
		assert.NotEmpty(t, p.Content)
	}
}

func TestRender_ArticleModeUsesCategoryTheme(t *testing.T) {
	artifact, err := NewRenderer(280).Render("acme/demo", "24h", sampleContent(), sampleSummary(), classify.CategoryBugfix, ModeArticle)
	assert.NoError(t, err)
	assert.Equal(t, ModeArticle, artifact.Mode)
	assert.Empty(t, artifact.Posts)

	assert.Contains(t, artifact.HTML, "Bug Fixes")
	assert.Contains(t, artifact.HTML, "Race conditions squashed")
	assert.Contains(t, artifact.HTML, "atomic file replacement")
	assert.Contains(t, artifact.HTML, "#BugFix")
	// 3 commits -> 75 + 3*5 = 90% decorative bar.
	assert.Contains(t, artifact.HTML, "width: 90%")
}

func TestRender_MissingRequiredField(t *testing.T) {
	content := sampleContent()
	content.Title = ""

	_, err := NewRenderer(280).Render("acme/demo", "24h", content, sampleSummary(), classify.CategoryBugfix, ModeArticle)

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "render_error", renderErr.Kind())
	assert.Equal(t, "title", renderErr.Field)
}

func TestArtifactFilename(t *testing.T) {
	artifact, err := NewRenderer(280).Render("acme/demo", "24h", sampleContent(), sampleSummary(), classify.CategoryBugfix, ModeArticle)
	assert.NoError(t, err)

	name := artifact.Filename()
	assert.True(t, strings.HasPrefix(name, "acme_demo_24h_"), name)
	assert.True(t, strings.HasSuffix(name, ".html"), name)

	artifact.Mode = ModePosts
	assert.True(t, strings.HasSuffix(artifact.Filename(), ".json"))
}

func TestProgressPercentIsMonotonicAndCapped(t *testing.T) {
	assert.Equal(t, 75, progressPercent(0))
	assert.Equal(t, 90, progressPercent(3))
	assert.Equal(t, 95, progressPercent(4))
	assert.Equal(t, 95, progressPercent(1000))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModePosts, mode)

	mode, err = ParseMode("Article")
	assert.NoError(t, err)
	assert.Equal(t, ModeArticle, mode)

	_, err = ParseMode("carousel")
	assert.Error(t, err)
}
