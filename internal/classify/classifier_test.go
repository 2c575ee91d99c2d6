package classify

import (
	"testing"

	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/stretchr/testify/assert"
)

func TestClassify_EmptyBatchIsGeneral(t *testing.T) {
	category, err := Classify(nil, "")
	assert.NoError(t, err)
	assert.Equal(t, CategoryGeneral, category)
}

func TestClassify_NoKeywordHitsIsGeneral(t *testing.T) {
	commits := []gitcollect.CommitRecord{
		{Message: "docs: typo"},
		{Message: "chore: bump deps"},
	}

	category, err := Classify(commits, "")
	assert.NoError(t, err)
	assert.Equal(t, CategoryGeneral, category)
}

func TestClassify_BugfixMajority(t *testing.T) {
	commits := []gitcollect.CommitRecord{
		{Message: "fix: null pointer"},
		{Message: "fix: race condition"},
		{Message: "docs: typo"},
	}

	category, err := Classify(commits, "")
	assert.NoError(t, err)
	assert.Equal(t, CategoryBugfix, category)
}

func TestClassify_SecurityWinsFourWayTie(t *testing.T) {
	// Each commit scores exactly 3 points for its own category.
	commits := []gitcollect.CommitRecord{
		{Message: "cve"},
		{Message: "perf cache"},
		{Message: "bug regression"},
		{Message: "feat introduce"},
	}

	scores := Scores(commits)
	assert.Equal(t, scores[CategorySecurity], scores[CategoryPerformance])
	assert.Equal(t, scores[CategoryPerformance], scores[CategoryBugfix])
	assert.Equal(t, scores[CategoryBugfix], scores[CategoryFeature])
	assert.NotZero(t, scores[CategorySecurity])

	category, err := Classify(commits, "")
	assert.NoError(t, err)
	assert.Equal(t, CategorySecurity, category)
}

func TestClassify_LargeChangesWeighHeavier(t *testing.T) {
	commits := []gitcollect.CommitRecord{
		{Message: "fix: off by one", LinesAdded: 2, LinesRemoved: 1},
		{Message: "feat: rewrite scheduler", LinesAdded: 400, LinesRemoved: 120},
	}

	category, err := Classify(commits, "")
	assert.NoError(t, err)
	assert.Equal(t, CategoryFeature, category)
}

func TestClassify_FilePathsCount(t *testing.T) {
	commits := []gitcollect.CommitRecord{
		{Message: "tighten checks", Files: []string{"internal/auth/token.go"}},
	}

	category, err := Classify(commits, "")
	assert.NoError(t, err)
	assert.Equal(t, CategorySecurity, category)
}

func TestClassify_OverrideBypassesScoring(t *testing.T) {
	commits := []gitcollect.CommitRecord{
		{Message: "fix: null pointer"},
	}

	category, err := Classify(commits, "performance")
	assert.NoError(t, err)
	assert.Equal(t, CategoryPerformance, category)
}

func TestClassify_InvalidOverride(t *testing.T) {
	_, err := Classify(nil, "hotstuff")

	var invalidErr *InvalidCategoryError
	assert.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "invalid_category", invalidErr.Kind())
	assert.Contains(t, err.Error(), "hotstuff")
}

func TestParseCategory(t *testing.T) {
	category, err := ParseCategory(" Security ")
	assert.NoError(t, err)
	assert.Equal(t, CategorySecurity, category)

	_, err = ParseCategory("refactor")
	assert.Error(t, err)
}
