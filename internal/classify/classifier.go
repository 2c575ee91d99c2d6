package classify

import (
	"fmt"
	"strings"

	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
)

// Category steers template and prompt selection for one pipeline run.
type Category string

const (
	CategoryFeature     Category = "feature"
	CategoryBugfix      Category = "bugfix"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryGeneral     Category = "general"
)

// tieBreak is the fixed priority order used when aggregate scores are equal.
// Security must never be under-reported by a coincidental tie.
var tieBreak = []Category{
	CategorySecurity,
	CategoryPerformance,
	CategoryBugfix,
	CategoryFeature,
	CategoryGeneral,
}

type keywordRule struct {
	keyword string
	weight  int
}

// scoringTable maps each category to its weighted keyword patterns. Keywords
// are matched as lowercase substrings of the commit message and file paths.
var scoringTable = map[Category][]keywordRule{
	CategorySecurity: {
		{"security", 3}, {"vuln", 3}, {"cve", 3},
		{"auth", 1}, {"crypt", 1}, {"credential", 2}, {"token", 1},
	},
	CategoryPerformance: {
		{"perf", 2}, {"optimiz", 2}, {"speed", 2},
		{"cache", 1}, {"benchmark", 1}, {"latency", 1},
	},
	CategoryBugfix: {
		{"fix", 2}, {"bug", 2}, {"patch", 2},
		{"hotfix", 2}, {"resolve", 1}, {"regression", 1},
	},
	CategoryFeature: {
		{"feat", 2}, {"add", 1}, {"new", 1},
		{"implement", 1}, {"introduce", 1},
	},
}

// largeChangeLines is the changed-line threshold above which a commit's
// keyword hits count double, so big borderline commits pull the batch
// toward their category.
const largeChangeLines = 100

// InvalidCategoryError reports a caller-supplied override outside the
// allowed category set. It is rejected before any network calls.
type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q, want one of feature, bugfix, security, performance, general", e.Value)
}

func (e *InvalidCategoryError) Kind() string { return "invalid_category" }

// ParseCategory validates a category string against the five allowed values.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFeature:
		return CategoryFeature, nil
	case CategoryBugfix:
		return CategoryBugfix, nil
	case CategorySecurity:
		return CategorySecurity, nil
	case CategoryPerformance:
		return CategoryPerformance, nil
	case CategoryGeneral:
		return CategoryGeneral, nil
	default:
		return "", &InvalidCategoryError{Value: s}
	}
}

// Classify scores a commit batch against the keyword table and returns the
// winning category. An explicit override bypasses scoring entirely; an empty
// batch or a batch with no keyword hits classifies as general.
func Classify(commits []gitcollect.CommitRecord, override string) (Category, error) {
	if override != "" {
		return ParseCategory(override)
	}

	scores := Scores(commits)

	best := CategoryGeneral
	bestScore := 0
	for _, category := range tieBreak {
		if category == CategoryGeneral {
			continue
		}
		if scores[category] > bestScore {
			best = category
			bestScore = scores[category]
		}
	}
	return best, nil
}

// Scores returns the aggregate per-category keyword score for a batch.
func Scores(commits []gitcollect.CommitRecord) map[Category]int {
	scores := make(map[Category]int, len(scoringTable))
	for _, commit := range commits {
		text := strings.ToLower(commit.Message)
		paths := strings.ToLower(strings.Join(commit.Files, " "))
		large := commit.LinesAdded+commit.LinesRemoved >= largeChangeLines

		for category, rules := range scoringTable {
			hits := 0
			for _, rule := range rules {
				if strings.Contains(text, rule.keyword) || strings.Contains(paths, rule.keyword) {
					hits += rule.weight
				}
			}
			if hits > 0 && large {
				hits *= 2
			}
			scores[category] += hits
		}
	}
	return scores
}
