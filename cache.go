package gitpress

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/gitpress/content"
)

// PostCache keeps rendered-page inputs for a revalidation window. A listing
// or post is served from memory until it is older than the TTL; degraded and
// absent reads are never stored, so the next request retries the backend.
// A read that overlaps an Invalidate is returned but not stored.
type PostCache struct {
	mu      sync.RWMutex
	gen     uint64
	posts   []content.Post
	fetched time.Time
	single  map[string]cachedPost
	ttl     time.Duration
	store   Store
	now     func() time.Time
}

type cachedPost struct {
	post    content.Post
	fetched time.Time
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s Store, ttl time.Duration) *PostCache {
	return &PostCache{
		store:  s,
		ttl:    ttl,
		single: make(map[string]cachedPost),
		now:    time.Now,
	}
}

func (c *PostCache) fresh(t time.Time) bool {
	return c.ttl > 0 && c.now().Sub(t) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.posts = nil
	c.single = make(map[string]cachedPost)
	c.mu.Unlock()
}

// ListPosts returns every post summary, newest first.
func (c *PostCache) ListPosts(ctx context.Context) content.Result[[]content.Post] {
	c.mu.RLock()
	if c.posts != nil && c.fresh(c.fetched) {
		posts := c.posts
		c.mu.RUnlock()
		return content.Result[[]content.Post]{Value: posts}
	}
	gen := c.gen
	c.mu.RUnlock()

	res := c.store.ListPosts(ctx)
	if res.OK() {
		c.mu.Lock()
		if c.gen == gen {
			c.posts = res.Value
			c.fetched = c.now()
		}
		c.mu.Unlock()
	}
	return res
}

// GetPost returns a single post with its body.
func (c *PostCache) GetPost(ctx context.Context, slug string) content.Result[*content.Post] {
	c.mu.RLock()
	cp, ok := c.single[slug]
	gen := c.gen
	c.mu.RUnlock()
	if ok && c.fresh(cp.fetched) {
		p := cp.post
		return content.Result[*content.Post]{Value: &p}
	}

	res := c.store.GetPost(ctx, slug)
	if res.OK() && res.Value != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.single[slug] = cachedPost{post: *res.Value, fetched: c.now()}
		}
		c.mu.Unlock()
	}
	return res
}
