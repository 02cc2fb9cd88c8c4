package content

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/gitpress/frontmatter"
)

const (
	postsDir  = "posts"
	imagesDir = "images"
	postExt   = ".md"
)

// Frontmatter keys written for every post, in this order.
const (
	KeyTitle   = "title"
	KeyAuthor  = "author"
	KeyDate    = "date"
	KeyExcerpt = "excerpt"
)

var reSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Post is a blog post stored at posts/{slug}.md.
type Post struct {
	Slug    string
	Title   string
	Author  string
	Date    string
	Excerpt string
	Content string

	Path     string               // posts/{slug}.md
	SHA      string               // blob sha of the stored document, empty if unknown
	Metadata frontmatter.Metadata // every header field as stored
}

// PostPath returns the repository path of the post named slug.
func PostPath(slug string) string {
	return postsDir + "/" + slug + postExt
}

// Link returns the public URL path of the post.
func (p Post) Link() string {
	return "/posts/" + p.Slug + "/"
}

// Validate checks a post before it is written.
func (p Post) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Slug,
			validation.Required,
			validation.Match(reSlug).Error("must contain only lowercase letters, digits and single hyphens"),
		),
		validation.Field(&p.Title, validation.Required, validation.By(singleLine)),
		validation.Field(&p.Author, validation.By(singleLine)),
		validation.Field(&p.Date, validation.Date("2006-01-02").Error("must be a date in YYYY-MM-DD format")),
		validation.Field(&p.Excerpt, validation.By(singleLine)),
		validation.Field(&p.Content, validation.Required),
	)
}

// singleLine rejects values that would break a frontmatter line.
func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") {
		return validation.NewError("validation_single_line", "must not contain line breaks")
	}
	return nil
}

// PostMetadata builds the header written for p: title, author, date and
// excerpt in that order, skipping empty optional fields, followed by any other
// fields p was loaded with.
func PostMetadata(p Post) frontmatter.Metadata {
	meta := frontmatter.Metadata{{Key: KeyTitle, Value: p.Title}}
	if p.Author != "" {
		meta = append(meta, frontmatter.Field{Key: KeyAuthor, Value: p.Author})
	}
	if p.Date != "" {
		meta = append(meta, frontmatter.Field{Key: KeyDate, Value: p.Date})
	}
	if p.Excerpt != "" {
		meta = append(meta, frontmatter.Field{Key: KeyExcerpt, Value: p.Excerpt})
	}
	for _, f := range p.Metadata {
		switch f.Key {
		case KeyTitle, KeyAuthor, KeyDate, KeyExcerpt:
			continue
		}
		meta = append(meta, f)
	}
	return meta
}

func postFromDocument(slug, path, sha string, doc frontmatter.Document) *Post {
	return &Post{
		Slug:     slug,
		Title:    doc.Metadata.Value(KeyTitle),
		Author:   doc.Metadata.Value(KeyAuthor),
		Date:     doc.Metadata.Value(KeyDate),
		Excerpt:  doc.Metadata.Value(KeyExcerpt),
		Content:  doc.Body,
		Path:     path,
		SHA:      sha,
		Metadata: doc.Metadata,
	}
}

func checkSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return ErrInvalidSlug
	}
	return nil
}
