// Package content stores blog posts and images in a GitHub repository.
//
// Posts live at posts/{slug}.md as a frontmatter header followed by a
// Markdown body; images live under images/. Every operation is a fresh round
// trip to the contents API. Reads never fail: they return a Result whose
// Degraded field carries the reason a value is empty or partial. Writes return
// errors.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/gitpress/frontmatter"
	"github.com/eringen/gitpress/ghcontents"
)

// Repository reads and writes posts and images. It is safe for concurrent use.
type Repository struct {
	cfg     Config
	client  *ghcontents.Client
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for write events and degraded reads.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) {
		r.log = l
	}
}

// WithMetrics records request and degradation counters.
func WithMetrics(m *Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// WithClock replaces time.Now, used to name uploaded images.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New returns a repository bound to cfg. An incomplete cfg is accepted here
// and reported by each operation.
func New(cfg Config, opts ...Option) *Repository {
	cfg.setDefaults()
	r := &Repository{
		cfg: cfg,
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.client = ghcontents.New(cfg.Token, cfg.Owner, cfg.Repo,
		ghcontents.WithBaseURL(cfg.APIBaseURL),
		ghcontents.WithBranch(cfg.Branch),
		ghcontents.WithTimeout(cfg.Timeout),
		ghcontents.WithObserver(r.metrics.observeRequest),
	)
	r.log = r.log.With().Str("repo", r.client.String()).Logger()
	return r
}

// String names the backing repository.
func (r *Repository) String() string {
	return r.client.String()
}

// ListPosts returns every post under posts/, newest first, without bodies.
// Posts that cannot be fetched are left out and reported through Degraded.
// A missing posts/ directory is an empty, non-degraded listing.
func (r *Repository) ListPosts(ctx context.Context) Result[[]Post] {
	if err := r.cfg.Validate(); err != nil {
		return degrade(r, "list_posts", []Post{}, err)
	}

	entries, err := r.client.List(ctx, postsDir)
	if err != nil {
		return degrade(r, "list_posts", []Post{}, fmt.Errorf("list %s: %w", postsDir, err))
	}

	var files []ghcontents.Entry
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		if strings.HasSuffix(e.Name, postExt) {
			files = append(files, e)
		}
	}

	fetched := make([]*Post, len(files))
	failures := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(r.cfg.MaxConcurrency)
	for i, e := range files {
		g.Go(func() error {
			slug := strings.TrimSuffix(e.Name, postExt)
			p, err := r.fetchPost(ctx, slug)
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", e.Path, err)
				return nil
			}
			p.Content = ""
			fetched[i] = p
			return nil
		})
	}
	_ = g.Wait()

	posts := make([]Post, 0, len(files))
	var skipped []error
	for i, p := range fetched {
		if p == nil {
			skipped = append(skipped, failures[i])
			continue
		}
		posts = append(posts, *p)
	}
	SortByDate(posts)

	if len(skipped) > 0 {
		err := fmt.Errorf("%w: %w", ErrPartialListing, errors.Join(skipped...))
		return degrade(r, "list_posts", posts, err)
	}
	return Result[[]Post]{Value: posts}
}

// GetPost returns the post named slug with its body. Value is nil when the
// post does not exist or could not be read; Degraded is set only in the
// latter case.
func (r *Repository) GetPost(ctx context.Context, slug string) Result[*Post] {
	if err := r.cfg.Validate(); err != nil {
		return degrade[*Post](r, "get_post", nil, err)
	}
	if checkSlug(slug) != nil {
		return Result[*Post]{}
	}

	p, err := r.fetchPost(ctx, slug)
	if err != nil {
		if errors.Is(err, ghcontents.ErrNotFound) {
			return Result[*Post]{}
		}
		return degrade[*Post](r, "get_post", nil, fmt.Errorf("get %s: %w", slug, err))
	}
	return Result[*Post]{Value: p}
}

// SavePost writes the post named slug, creating it if it has no stored
// version yet and updating the current version otherwise. The version lookup
// and the write are two separate round trips; a concurrent writer can make the
// write fail with a sha conflict.
func (r *Repository) SavePost(ctx context.Context, slug, body string, meta frontmatter.Metadata) (*ghcontents.PutResponse, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkSlug(slug); err != nil {
		return nil, err
	}

	sha, err := r.lookupSHA(ctx, PostPath(slug))
	if err != nil {
		r.log.Debug().Err(err).Str("slug", slug).Msg("no current version, creating post")
		sha = ""
	}
	return r.SavePostAt(ctx, slug, body, meta, sha)
}

// SavePostAt writes the post named slug against an explicit version: an
// empty sha creates the post, any other value must be the sha of the stored
// document.
func (r *Repository) SavePostAt(ctx context.Context, slug, body string, meta frontmatter.Metadata, sha string) (*ghcontents.PutResponse, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkSlug(slug); err != nil {
		return nil, err
	}

	action := "Create"
	if sha != "" {
		action = "Update"
	}
	resp, err := r.client.Put(ctx, PostPath(slug), ghcontents.PutRequest{
		Message: action + " post: " + slug,
		Content: ghcontents.EncodeText(frontmatter.Encode(meta, body)),
		SHA:     sha,
	})
	if err != nil {
		r.log.Error().Err(err).Str("slug", slug).Str("action", action).Msg("save post rejected")
		return nil, fmt.Errorf("%w: %s: %w", ErrSave, slug, err)
	}

	r.log.Info().Str("slug", slug).Str("action", action).Str("sha", resp.Content.SHA).Msg("post saved")
	return resp, nil
}

// DeletePost removes the post named slug. It fails with ErrNotFound when the
// current version cannot be read.
func (r *Repository) DeletePost(ctx context.Context, slug string) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	if err := checkSlug(slug); err != nil {
		return err
	}

	path := PostPath(slug)
	sha, err := r.lookupSHA(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, slug, err)
	}

	err = r.client.Delete(ctx, path, ghcontents.DeleteRequest{
		Message: "Delete post: " + slug,
		SHA:     sha,
	})
	if err != nil {
		r.log.Error().Err(err).Str("slug", slug).Msg("delete post rejected")
		return fmt.Errorf("%w: %s: %w", ErrDelete, slug, err)
	}

	r.log.Info().Str("slug", slug).Msg("post deleted")
	return nil
}

func (r *Repository) fetchPost(ctx context.Context, slug string) (*Post, error) {
	path := PostPath(slug)
	f, err := r.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	text, err := f.Text()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return postFromDocument(slug, path, f.SHA, frontmatter.Decode(text)), nil
}

func (r *Repository) lookupSHA(ctx context.Context, path string) (string, error) {
	f, err := r.client.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if f.SHA == "" {
		return "", fmt.Errorf("%s: response carried no sha", path)
	}
	return f.SHA, nil
}

func degrade[T any](r *Repository, op string, value T, err error) Result[T] {
	r.metrics.degradedRead(op)
	r.log.Warn().Err(err).Str("op", op).Msg("read degraded")
	return Result[T]{Value: value, Degraded: err}
}
