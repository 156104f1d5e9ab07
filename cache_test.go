package lunatech

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestPostCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{posts: samplePosts()}
	c := NewPostCache(src, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.ListPosts(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}

	tags, err := c.ListTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"backend", "css", "go", "ops"}; !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}

	recent, err := c.ListRecentPosts(ctx, 0)
	if err != nil || len(recent) != 3 {
		t.Errorf("recent = %v, %v", ids(recent), err)
	}
	two, _ := c.ListRecentPosts(ctx, 2)
	if len(two) != 2 {
		t.Errorf("len = %d, want 2", len(two))
	}
}

func TestPostCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{posts: samplePosts()}
	c := NewPostCache(src, time.Hour)
	c.ListPosts(ctx)

	src.posts = src.posts[:1]
	c.Invalidate()
	posts, err := c.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || src.calls != 2 {
		t.Errorf("after invalidate: %d posts, %d calls", len(posts), src.calls)
	}
}

func TestPostCacheExpiresAndKeepsEmpty(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{}
	c := NewPostCache(src, time.Nanosecond)

	posts, err := c.ListPosts(ctx)
	if err != nil || posts == nil {
		t.Fatalf("posts = %#v, err = %v", posts, err)
	}
	time.Sleep(time.Millisecond)
	c.ListPosts(ctx)
	if src.calls != 2 {
		t.Errorf("expired cache should reload, calls = %d", src.calls)
	}
}

func TestPostCacheErrorNotCached(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{err: ErrTransport}
	c := NewPostCache(src, time.Hour)
	if _, err := c.ListPosts(ctx); !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	src.err = nil
	src.posts = samplePosts()
	if posts, err := c.ListPosts(ctx); err != nil || len(posts) != 3 {
		t.Errorf("posts = %d, err = %v", len(posts), err)
	}
}

func TestRepositoryWritesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	repo, sess, _ := setupTestRepo(t)
	c := NewPostCache(repo, time.Hour)
	repo.OnWrite(c.Invalidate)

	if posts, _ := c.ListPosts(ctx); len(posts) != 0 {
		t.Fatalf("posts = %d", len(posts))
	}
	if _, err := repo.CreatePost(ctx, sess, validDraft("Cached")); err != nil {
		t.Fatal(err)
	}
	posts, err := c.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Title != "Cached" {
		t.Errorf("cache served stale data: %v", titles(posts))
	}
}
