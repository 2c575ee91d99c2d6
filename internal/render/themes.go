package render

import "github.com/ShreerajShettyK/git_posts/internal/classify"

// theme parameterizes the one shared template per category. Colors and
// labels are presentation-only.
type theme struct {
	Label  string
	Badge  string
	Accent string
}

var themes = map[classify.Category]theme{
	classify.CategoryFeature:     {Label: "New Features", Badge: "🚀", Accent: "#2563eb"},
	classify.CategoryBugfix:      {Label: "Bug Fixes", Badge: "🐛", Accent: "#16a34a"},
	classify.CategorySecurity:    {Label: "Security Update", Badge: "🔒", Accent: "#dc2626"},
	classify.CategoryPerformance: {Label: "Performance", Badge: "⚡", Accent: "#d97706"},
	classify.CategoryGeneral:     {Label: "Project Update", Badge: "📦", Accent: "#475569"},
}

func themeFor(category classify.Category) theme {
	if t, ok := themes[category]; ok {
		return t
	}
	return themes[classify.CategoryGeneral]
}
