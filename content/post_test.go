package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/frontmatter"
)

func TestPostValidate(t *testing.T) {
	valid := content.Post{
		Slug:    "hello-world",
		Title:   "Hello",
		Date:    "2024-01-01",
		Content: "# Hi",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(*content.Post)
	}{
		{"missing slug", func(p *content.Post) { p.Slug = "" }},
		{"uppercase slug", func(p *content.Post) { p.Slug = "Hello" }},
		{"double hyphen", func(p *content.Post) { p.Slug = "a--b" }},
		{"leading hyphen", func(p *content.Post) { p.Slug = "-a" }},
		{"slash in slug", func(p *content.Post) { p.Slug = "a/b" }},
		{"missing title", func(p *content.Post) { p.Title = "" }},
		{"multi-line title", func(p *content.Post) { p.Title = "a\nb" }},
		{"multi-line excerpt", func(p *content.Post) { p.Excerpt = "a\r\nb" }},
		{"bad date", func(p *content.Post) { p.Date = "01/02/2024" }},
		{"missing content", func(p *content.Post) { p.Content = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPostValidateOptionalFields(t *testing.T) {
	p := content.Post{Slug: "a1", Title: "T", Content: "x"}
	assert.NoError(t, p.Validate())
}

func TestPostMetadata(t *testing.T) {
	p := content.Post{
		Title:   "Hello",
		Date:    "2024-01-01",
		Excerpt: "Short",
		Metadata: frontmatter.Metadata{
			{Key: "title", Value: "Old"},
			{Key: "tags", Value: "go, blog"},
			{Key: "date", Value: "2023-01-01"},
		},
	}

	meta := content.PostMetadata(p)
	assert.Equal(t, frontmatter.Metadata{
		{Key: "title", Value: "Hello"},
		{Key: "date", Value: "2024-01-01"},
		{Key: "excerpt", Value: "Short"},
		{Key: "tags", Value: "go, blog"},
	}, meta)
}

func TestPostPathAndLink(t *testing.T) {
	assert.Equal(t, "posts/hello-world.md", content.PostPath("hello-world"))
	assert.Equal(t, "/posts/hello-world/", content.Post{Slug: "hello-world"}.Link())
}

func TestSortByDate(t *testing.T) {
	posts := []content.Post{
		{Slug: "undated"},
		{Slug: "jan", Date: "2024-01-01"},
		{Slug: "garbage", Date: "someday"},
		{Slug: "mar", Date: "2024-03-01"},
		{Slug: "feb", Date: "February 1, 2024"},
		{Slug: "jan-again", Date: "2024-01-01"},
	}
	content.SortByDate(posts)

	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"mar", "feb", "jan", "jan-again", "undated", "garbage"}, slugs)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-02", "2024-01-02T10:00:00Z", "2024-01-02 10:00", "Jan 2, 2024"} {
		got, ok := content.ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, got.Year(), s)
		assert.Equal(t, 2, got.Day(), s)
	}
	_, ok := content.ParseDate("  ")
	assert.False(t, ok)
	_, ok = content.ParseDate("tomorrow")
	assert.False(t, ok)
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "images/5-a.png", content.ImagePath(5, "a.png"))
	assert.Equal(t, "images/5-caf_.jpg", content.ImagePath(5, "café.jpg"))
	assert.Equal(t, "images/5-image", content.ImagePath(5, ""))
	assert.Equal(t, "a_b-c.D", content.SanitizeFilename("a b-c.D"))
}
