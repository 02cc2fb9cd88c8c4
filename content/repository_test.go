package content_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/frontmatter"
	"github.com/eringen/gitpress/ghcontents"
	"github.com/eringen/gitpress/ghcontents/ghtest"
)

func newRepo(t *testing.T, opts ...content.Option) (*content.Repository, *ghtest.Server) {
	t.Helper()
	srv := ghtest.New("octo", "blog")
	t.Cleanup(srv.Close)
	repo := content.New(content.Config{
		Token:      "token",
		Owner:      "octo",
		Repo:       "blog",
		APIBaseURL: srv.URL,
	}, opts...)
	return repo, srv
}

func seedPost(srv *ghtest.Server, slug, title, date string) {
	meta := frontmatter.Metadata{{Key: "title", Value: title}, {Key: "date", Value: date}}
	srv.Seed(content.PostPath(slug), []byte(frontmatter.Encode(meta, "Body of "+slug)))
}

func TestSaveAndGetPost(t *testing.T) {
	repo, srv := newRepo(t)
	ctx := context.Background()

	meta := frontmatter.Metadata{{Key: "title", Value: "Hello"}, {Key: "date", Value: "2024-01-01"}}
	resp, err := repo.SavePost(ctx, "hello-world", "# Hi\n\nBody.", meta)
	require.NoError(t, err)
	assert.Equal(t, "posts/hello-world.md", resp.Content.Path)

	stored, ok := srv.File("posts/hello-world.md")
	require.True(t, ok)
	assert.Equal(t, "---\ntitle: Hello\ndate: 2024-01-01\n---\n\n# Hi\n\nBody.", string(stored))

	got := repo.GetPost(ctx, "hello-world")
	require.True(t, got.OK())
	require.NotNil(t, got.Value)
	assert.Equal(t, "hello-world", got.Value.Slug)
	assert.Equal(t, "Hello", got.Value.Title)
	assert.Equal(t, "2024-01-01", got.Value.Date)
	assert.Equal(t, "", got.Value.Author)
	assert.Equal(t, "# Hi\n\nBody.", got.Value.Content)
	assert.Equal(t, "posts/hello-world.md", got.Value.Path)
	assert.Equal(t, ghtest.SHA(stored), got.Value.SHA)
	assert.Equal(t, meta, got.Value.Metadata)
}

func TestSavePostCreateThenUpdate(t *testing.T) {
	repo, srv := newRepo(t)
	ctx := context.Background()
	meta := frontmatter.Metadata{{Key: "title", Value: "T"}}

	_, err := repo.SavePost(ctx, "a", "one", meta)
	require.NoError(t, err)
	first, _ := srv.File("posts/a.md")

	_, err = repo.SavePost(ctx, "a", "two", meta)
	require.NoError(t, err)

	writes := srv.Writes()
	require.Len(t, writes, 2)

	_, hasSHA := writes[0].Body["sha"]
	assert.False(t, hasSHA, "create must not send a sha")
	assert.Equal(t, "Create post: a", writes[0].Body["message"])

	assert.Equal(t, ghtest.SHA(first), writes[1].Body["sha"])
	assert.Equal(t, "Update post: a", writes[1].Body["message"])

	got := repo.GetPost(ctx, "a")
	require.NotNil(t, got.Value)
	assert.Equal(t, "two", got.Value.Content)
}

func TestSavePostLookupFailureCreates(t *testing.T) {
	repo, srv := newRepo(t)
	srv.Fail(http.MethodGet, "posts/a.md", http.StatusInternalServerError)

	_, err := repo.SavePost(context.Background(), "a", "body", frontmatter.Metadata{{Key: "title", Value: "T"}})
	require.NoError(t, err)

	writes := srv.Writes()
	require.Len(t, writes, 1)
	_, hasSHA := writes[0].Body["sha"]
	assert.False(t, hasSHA)
}

func TestSavePostRejected(t *testing.T) {
	repo, srv := newRepo(t)
	srv.Fail(http.MethodPut, "posts/a.md", http.StatusForbidden)

	_, err := repo.SavePost(context.Background(), "a", "body", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrSave))
	assert.True(t, errors.Is(err, ghcontents.ErrUnauthorized))
}

func TestSavePostAtStaleSHA(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")

	_, err := repo.SavePostAt(context.Background(), "a", "body", nil, "0000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrSave))
	assert.True(t, errors.Is(err, ghcontents.ErrConflict))
}

func TestSavePostInvalidSlug(t *testing.T) {
	repo, srv := newRepo(t)

	for _, slug := range []string{"", "..", "a/b", `a\b`} {
		_, err := repo.SavePost(context.Background(), slug, "body", nil)
		assert.True(t, errors.Is(err, content.ErrInvalidSlug), "slug %q", slug)
	}
	assert.Empty(t, srv.Requests())
}

func TestGetPostMissing(t *testing.T) {
	repo, _ := newRepo(t)

	got := repo.GetPost(context.Background(), "missing-slug")
	assert.Nil(t, got.Value)
	assert.True(t, got.OK(), "not found is not a degraded read")
}

func TestGetPostTransientFailure(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	srv.Fail(http.MethodGet, "posts/a.md", http.StatusBadGateway)

	got := repo.GetPost(context.Background(), "a")
	assert.Nil(t, got.Value)
	require.Error(t, got.Degraded)
	assert.False(t, errors.Is(got.Degraded, ghcontents.ErrNotFound))
}

func TestGetPostWithoutHeader(t *testing.T) {
	repo, srv := newRepo(t)
	srv.Seed("posts/raw.md", []byte("just text\n"))

	got := repo.GetPost(context.Background(), "raw")
	require.NotNil(t, got.Value)
	assert.Equal(t, "", got.Value.Title)
	assert.Equal(t, "just text\n", got.Value.Content)
}

func TestListPostsOrdering(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "first", "First", "2024-03-01")
	seedPost(srv, "second", "Second", "2024-01-01")
	seedPost(srv, "third", "Third", "2024-02-01")

	got := repo.ListPosts(context.Background())
	require.True(t, got.OK())
	require.Len(t, got.Value, 3)
	assert.Equal(t, "2024-03-01", got.Value[0].Date)
	assert.Equal(t, "2024-02-01", got.Value[1].Date)
	assert.Equal(t, "2024-01-01", got.Value[2].Date)

	assert.Equal(t, "first", got.Value[0].Slug)
	assert.Equal(t, "posts/first.md", got.Value[0].Path)
	assert.Equal(t, "First", got.Value[0].Title)
	assert.Empty(t, got.Value[0].Content, "listing carries summaries only")
}

func TestListPostsSkipsNonMarkdown(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	srv.Seed("posts/README.txt", []byte("not a post"))
	srv.Seed("posts/drafts/b.md", []byte("nested"))

	got := repo.ListPosts(context.Background())
	require.True(t, got.OK())
	require.Len(t, got.Value, 1)
	assert.Equal(t, "a", got.Value[0].Slug)
}

func TestListPostsPartial(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	seedPost(srv, "b", "B", "2024-02-01")
	srv.Fail(http.MethodGet, "posts/b.md", http.StatusInternalServerError)

	got := repo.ListPosts(context.Background())
	require.Len(t, got.Value, 1)
	assert.Equal(t, "a", got.Value[0].Slug)
	assert.True(t, errors.Is(got.Degraded, content.ErrPartialListing))
}

func TestListPostsMissingDirectory(t *testing.T) {
	repo, _ := newRepo(t)

	got := repo.ListPosts(context.Background())
	assert.True(t, got.OK())
	assert.NotNil(t, got.Value)
	assert.Empty(t, got.Value)
}

func TestListPostsListingFailure(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	srv.Fail(http.MethodGet, "posts", http.StatusInternalServerError)

	got := repo.ListPosts(context.Background())
	assert.Empty(t, got.Value)
	assert.Error(t, got.Degraded)
}

func TestListPostsManyWithLowConcurrency(t *testing.T) {
	srv := ghtest.New("octo", "blog")
	defer srv.Close()
	repo := content.New(content.Config{
		Token: "token", Owner: "octo", Repo: "blog",
		APIBaseURL: srv.URL, MaxConcurrency: 2,
	})
	for i := 1; i <= 20; i++ {
		date := time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		seedPost(srv, "post-"+date, "P", date)
	}

	got := repo.ListPosts(context.Background())
	require.True(t, got.OK())
	require.Len(t, got.Value, 20)
	assert.Equal(t, "2024-01-20", got.Value[0].Date)
	assert.Equal(t, "2024-01-01", got.Value[19].Date)
}

func TestDeletePost(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	stored, _ := srv.File("posts/a.md")

	require.NoError(t, repo.DeletePost(context.Background(), "a"))

	_, ok := srv.File("posts/a.md")
	assert.False(t, ok)

	writes := srv.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, http.MethodDelete, writes[0].Method)
	assert.Equal(t, "Delete post: a", writes[0].Body["message"])
	assert.Equal(t, ghtest.SHA(stored), writes[0].Body["sha"])
}

func TestDeletePostMissing(t *testing.T) {
	repo, srv := newRepo(t)

	err := repo.DeletePost(context.Background(), "missing-slug")
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrNotFound))
	assert.Empty(t, srv.Writes())
}

func TestDeletePostRejected(t *testing.T) {
	repo, srv := newRepo(t)
	seedPost(srv, "a", "A", "2024-01-01")
	srv.Fail(http.MethodDelete, "posts/a.md", http.StatusConflict)

	err := repo.DeletePost(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrDelete))
}

func TestIncompleteConfiguration(t *testing.T) {
	srv := ghtest.New("octo", "blog")
	defer srv.Close()
	repo := content.New(content.Config{Owner: "octo", APIBaseURL: srv.URL})
	ctx := context.Background()

	list := repo.ListPosts(ctx)
	assert.Empty(t, list.Value)
	assert.True(t, errors.Is(list.Degraded, content.ErrConfiguration))

	get := repo.GetPost(ctx, "a")
	assert.Nil(t, get.Value)
	assert.True(t, errors.Is(get.Degraded, content.ErrConfiguration))

	_, err := repo.SavePost(ctx, "a", "b", nil)
	assert.True(t, errors.Is(err, content.ErrConfiguration))

	err = repo.DeletePost(ctx, "a")
	assert.True(t, errors.Is(err, content.ErrConfiguration))

	_, err = repo.UploadImage(ctx, "a.png", []byte{1})
	assert.True(t, errors.Is(err, content.ErrConfiguration))

	var cfgErr *content.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"token", "repo"}, cfgErr.Missing)

	assert.Empty(t, srv.Requests())
}

func TestUploadImage(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	repo, srv := newRepo(t, content.WithClock(func() time.Time { return now }))
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}

	url, err := repo.UploadImage(context.Background(), "my photo (1).png", payload)
	require.NoError(t, err)
	assert.Contains(t, url, "images/1700000000123-my_photo__1_.png")

	stored, ok := srv.File("images/1700000000123-my_photo__1_.png")
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	writes := srv.Writes()
	require.Len(t, writes, 1)
	_, hasSHA := writes[0].Body["sha"]
	assert.False(t, hasSHA)
	assert.Equal(t, "Upload image: 1700000000123-my_photo__1_.png", writes[0].Body["message"])
}

func TestUploadImageRejected(t *testing.T) {
	now := time.UnixMilli(42)
	repo, srv := newRepo(t, content.WithClock(func() time.Time { return now }))
	srv.Seed("images/42-a.png", []byte("taken"))

	_, err := repo.UploadImage(context.Background(), "a.png", []byte("new"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrUpload))
}
