package lunatech

import (
	"context"
	"sync"
	"time"
)

// PostLister is anything that can list published posts, newest first.
type PostLister interface {
	ListPosts(ctx context.Context) ([]Post, error)
}

// PostCache is an in-memory cache of published posts and their tags with TTL.
// The public pages read through it; the repository invalidates it on writes.
type PostCache struct {
	mu      sync.RWMutex
	posts   []Post
	tags    []string
	fetched time.Time
	ttl     time.Duration
	source  PostLister
}

// NewPostCache creates a PostCache backed by source.
func NewPostCache(source PostLister, ttl time.Duration) *PostCache {
	return &PostCache{source: source, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.source.ListPosts(ctx)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	c.posts = posts
	c.tags = CollectTagVocabulary(posts)
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]Post, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.tags, nil
}

// ListPosts returns the cached published posts. Callers must not modify the slice.
func (c *PostCache) ListPosts(ctx context.Context) ([]Post, error) {
	posts, _, err := c.ensureLoaded(ctx)
	return posts, err
}

// ListTags returns the tag vocabulary of published posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// ListRecentPosts returns at most limit posts; limit <= 0 means 3.
func (c *PostCache) ListRecentPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
