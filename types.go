package lunatech

import "time"

// Post is the core content type stored in SQLite and rendered by templates.
type Post struct {
	ID              string
	Title           string
	Slug            string
	Description     string
	Content         string // Markdown, as stored
	ContentHTML     string // rendered on read, never persisted
	MetaTitle       string
	MetaDescription string
	Tags            []string
	FeaturedImage   string
	AuthorID        string
	Author          Author
	CreatedAt       time.Time
	Published       bool
}

// Link returns the public path of the post.
func (p Post) Link() string {
	return "/blog/" + PathEscape(p.Slug)
}

// PageTitle returns the SEO title override, falling back to the post title.
func (p Post) PageTitle() string {
	if p.MetaTitle != "" {
		return p.MetaTitle
	}
	return p.Title
}

// PageDescription returns the SEO description override, falling back to the summary.
func (p Post) PageDescription() string {
	if p.MetaDescription != "" {
		return p.MetaDescription
	}
	return p.Description
}

// Author is the read-only profile joined onto every post read.
type Author struct {
	FullName  string
	AvatarURL string
}

// Draft carries the fields an author may set on create or update.
// A nil pointer leaves the field untouched. Tags follows the same rule:
// nil is "unchanged", an empty non-nil slice clears the tags.
type Draft struct {
	Title           *string
	Slug            *string
	Description     *string
	Content         *string
	MetaTitle       *string
	MetaDescription *string
	Tags            []string
	FeaturedImage   *string
	Published       *bool
}

// Ptr returns a pointer to v. Handy for building a Draft.
func Ptr[T any](v T) *T {
	return &v
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
