package generate

import (
	"fmt"
	"strings"
)

// CodeSnippet is one illustrative code sample in generated content.
type CodeSnippet struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Content is the structured result of one generation run. It is treated as
// immutable once validated.
type Content struct {
	Title               string        `json:"title"`
	Summary             string        `json:"summary"`
	DetailedExplanation string        `json:"detailed_explanation"`
	TechnicalHighlights []string      `json:"technical_highlights"`
	UserBenefits        []string      `json:"user_benefits"`
	CodeSnippets        []CodeSnippet `json:"code_snippets"`
	Tags                []string      `json:"tags"`
	Hashtags            []string      `json:"hashtags"`
}

// validate checks the fields the renderer cannot do without.
func (c *Content) validate() error {
	var missing []string
	if strings.TrimSpace(c.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(c.Summary) == "" {
		missing = append(missing, "summary")
	}
	if strings.TrimSpace(c.DetailedExplanation) == "" {
		missing = append(missing, "detailed_explanation")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// normalize sanitizes tags and hashtags and replaces nil slices with empty
// ones so downstream consumers never see null lists.
func (c *Content) normalize() {
	c.Tags = sanitizeTags(c.Tags)
	c.Hashtags = SanitizeHashtags(c.Hashtags)
	if c.TechnicalHighlights == nil {
		c.TechnicalHighlights = []string{}
	}
	if c.UserBenefits == nil {
		c.UserBenefits = []string{}
	}
	if c.CodeSnippets == nil {
		c.CodeSnippets = []CodeSnippet{}
	}
}

// SanitizeHashtag reduces a raw tag to "#" followed by alphanumeric and
// underscore characters. Returns "" when nothing survives.
func SanitizeHashtag(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(strings.TrimSpace(raw), "#") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

// SanitizeHashtags sanitizes each entry and drops the ones that collapse to
// nothing. The result is never nil.
func SanitizeHashtags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		if s := SanitizeHashtag(tag); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}
