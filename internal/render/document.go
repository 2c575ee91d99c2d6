package render

import (
	"fmt"
	"regexp"
	"time"
)

// Document is the JSON contract the display frontend consumes. Its
// validation mirrors the checks the frontend applies to uploaded documents.
type Document struct {
	Format     string          `json:"format"`
	Date       string          `json:"date"`
	TimePeriod string          `json:"timePeriod"`
	Content    DocumentContent `json:"content"`
}

type DocumentContent struct {
	Posts   []DocumentPost `json:"posts,omitempty"`
	Article *Article       `json:"article,omitempty"`
}

type DocumentPost struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags"`
	Timestamp string   `json:"timestamp"`
}

type Article struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"keyPoints"`
	Hashtags  []string `json:"hashtags"`
}

var timePeriodPattern = regexp.MustCompile(`^[0-9]+[hd]$`)

// BuildDocument converts an artifact into the frontend document shape.
// Article documents carry the plain-text narrative rather than the rendered
// HTML; the frontend owns presentation.
func BuildDocument(artifact *Artifact, title, summary, narrative string, keyPoints, hashtags []string) Document {
	doc := Document{
		Format:     string(artifact.Mode),
		Date:       artifact.CreatedAt.Format("2006-01-02"),
		TimePeriod: artifact.TimePeriod,
	}
	if artifact.Mode == ModeArticle {
		if keyPoints == nil {
			keyPoints = []string{}
		}
		if hashtags == nil {
			hashtags = []string{}
		}
		doc.Content.Article = &Article{
			Title:     title,
			Summary:   summary,
			Content:   narrative,
			KeyPoints: keyPoints,
			Hashtags:  hashtags,
		}
		return doc
	}

	doc.Content.Posts = make([]DocumentPost, 0, len(artifact.Posts))
	for _, p := range artifact.Posts {
		hashtags := p.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		doc.Content.Posts = append(doc.Content.Posts, DocumentPost{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Hashtags:  hashtags,
			Timestamp: p.Timestamp.Format(time.RFC3339),
		})
	}
	return doc
}

// ValidateDocument enforces the document contract: required fields, the
// format enum, the time-period shape, and per-post/article field presence.
func ValidateDocument(doc Document) error {
	switch doc.Format {
	case string(ModePosts), string(ModeArticle):
	default:
		return fmt.Errorf("document format must be %q or %q, got %q", ModePosts, ModeArticle, doc.Format)
	}
	if doc.Date == "" {
		return fmt.Errorf("document date is required")
	}
	if !timePeriodPattern.MatchString(doc.TimePeriod) {
		return fmt.Errorf("document timePeriod %q must match N h/d, e.g. 2h or 7d", doc.TimePeriod)
	}

	if doc.Format == string(ModeArticle) {
		article := doc.Content.Article
		if article == nil {
			return fmt.Errorf("article document requires content.article")
		}
		if article.Title == "" || article.Summary == "" || article.Content == "" {
			return fmt.Errorf("article requires title, summary and content")
		}
		return nil
	}

	if doc.Content.Posts == nil {
		return fmt.Errorf("posts document requires content.posts")
	}
	for i, p := range doc.Content.Posts {
		if p.ID == "" {
			return fmt.Errorf("post %d is missing id", i)
		}
		if p.Content == "" {
			return fmt.Errorf("post %d is missing content", i)
		}
		if p.Timestamp == "" {
			return fmt.Errorf("post %d is missing timestamp", i)
		}
		if p.Hashtags == nil {
			return fmt.Errorf("post %d is missing hashtags", i)
		}
	}
	return nil
}
