package lunatech

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeLister struct {
	posts []Post
	err   error
	calls int
}

func (f *fakeLister) ListPosts(ctx context.Context) ([]Post, error) {
	f.calls++
	return f.posts, f.err
}

func samplePosts() []Post {
	return []Post{
		{ID: "1", Title: "Building with Go", Description: "Servers and tooling", Tags: []string{"go", "backend"}},
		{ID: "2", Title: "CSS grids", Description: "Layouts that GO somewhere", Tags: []string{"css"}},
		{ID: "3", Title: "Deploying", Description: "Shipping to production", Tags: []string{"ops", "go"}},
	}
}

func TestFilterPosts(t *testing.T) {
	posts := samplePosts()
	tests := []struct {
		search, tag string
		want        []string
	}{
		{"", "", []string{"1", "2", "3"}},
		{"go", "", []string{"1", "2"}},
		{"  GRIDS ", "", []string{"2"}},
		{"", "go", []string{"1", "3"}},
		{"go", "go", []string{"1"}},
		{"", "Go", []string{}},
		{"nothing", "", []string{}},
	}
	for _, tt := range tests {
		got := ids(FilterPosts(posts, tt.search, tt.tag))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FilterPosts(%q, %q) = %v, want %v", tt.search, tt.tag, got, tt.want)
		}
	}
}

func TestListControllerLoadsOnce(t *testing.T) {
	src := &fakeLister{posts: samplePosts()}
	c := NewListController(src)
	c.Load(context.Background())
	c.Load(context.Background())
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}

	c.SetSearch("deploy")
	c.SetTag(" ops ")
	page := c.Page()
	if len(page.Posts) != 1 || page.Posts[0].ID != "3" {
		t.Errorf("visible = %v", ids(page.Posts))
	}
	if page.Total != 3 || page.Tag != "ops" || page.Search != "deploy" {
		t.Errorf("page = %+v", page)
	}
	if want := []string{"backend", "css", "go", "ops"}; !reflect.DeepEqual(page.Tags, want) {
		t.Errorf("Tags = %v, want %v", page.Tags, want)
	}
	if src.calls != 1 {
		t.Error("filtering must not refetch")
	}
}

func TestListControllerError(t *testing.T) {
	src := &fakeLister{err: fmt.Errorf("list posts: %w: disk gone", ErrTransport)}
	c := NewListController(src)
	c.Load(context.Background())
	if c.Err() == "" {
		t.Error("expected an error message")
	}
	if len(c.Visible()) != 0 || len(c.Tags()) != 0 {
		t.Error("failed load should show no posts")
	}
}

func TestListControllerCanceled(t *testing.T) {
	src := &fakeLister{posts: samplePosts()}
	c := NewListController(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Load(ctx)
	if len(c.Visible()) != 0 || c.Err() != "" {
		t.Error("result of a canceled load was applied")
	}
	c.Load(context.Background())
	if len(c.Visible()) != 3 {
		t.Errorf("reload after cancel: %d posts", len(c.Visible()))
	}
}

type fakeGetter struct {
	posts map[string]Post
	err   error
	// hook runs inside GetPostBySlug before it returns.
	hook func(slug string)
}

func (f *fakeGetter) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	if f.hook != nil {
		f.hook(slug)
	}
	if f.err != nil {
		return Post{}, f.err
	}
	p, ok := f.posts[slug]
	if !ok {
		return Post{}, fmt.Errorf("get post %s: %w", slug, ErrNotFound)
	}
	return p, nil
}

func TestDetailControllerStates(t *testing.T) {
	src := &fakeGetter{posts: map[string]Post{"hello": {ID: "1", Slug: "hello", ContentHTML: "<p>hi</p>"}}}
	c := NewDetailController(src)
	if c.State() != DetailLoading {
		t.Errorf("initial state = %v", c.State())
	}

	c.Load(context.Background(), "hello")
	if c.State() != DetailLoaded || c.Post().ID != "1" {
		t.Errorf("state = %v, post = %+v", c.State(), c.Post())
	}

	c.Load(context.Background(), "missing")
	if c.State() != DetailNotFound || c.Post().ID != "" {
		t.Errorf("state = %v, post = %+v", c.State(), c.Post())
	}

	src.err = fmt.Errorf("get post: %w: timeout", ErrTransport)
	c.Load(context.Background(), "hello")
	if c.State() != DetailError || c.Err() == "" {
		t.Errorf("state = %v, err = %q", c.State(), c.Err())
	}
}

func TestDetailControllerDropsStaleResults(t *testing.T) {
	src := &fakeGetter{posts: map[string]Post{
		"a": {ID: "a", Slug: "a"},
		"b": {ID: "b", Slug: "b"},
	}}
	c := NewDetailController(src)

	// While "a" is in flight the route moves on to "b".
	src.hook = func(slug string) {
		if slug == "a" {
			src.hook = nil
			c.Load(context.Background(), "b")
		}
	}
	c.Load(context.Background(), "a")
	if c.Post().ID != "b" {
		t.Errorf("post = %q, want the later slug's post", c.Post().ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	src.hook = func(string) { cancel() }
	c.Load(ctx, "a")
	if c.State() != DetailLoading || c.Post().ID != "" {
		t.Errorf("canceled load applied: state %v, post %q", c.State(), c.Post().ID)
	}
}

// fakeEditorRepo is an in-memory EditorRepository.
type fakeEditorRepo struct {
	mu     sync.Mutex
	posts  []Post
	next   int
	err     error
	onCall  func()
	deleted []string
}

func (f *fakeEditorRepo) call() error {
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

func (f *fakeEditorRepo) ListAllPosts(ctx context.Context) ([]Post, error) {
	if err := f.call(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Post{}, f.posts...), nil
}

func (f *fakeEditorRepo) CreatePost(ctx context.Context, sess *Session, d Draft) (Post, error) {
	if err := f.call(); err != nil {
		return Post{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	p := Post{ID: fmt.Sprintf("new-%d", f.next), AuthorID: sess.UserID, CreatedAt: time.Now()}
	applyDraft(&p, d)
	f.posts = append([]Post{p}, f.posts...)
	return p, nil
}

func (f *fakeEditorRepo) UpdatePost(ctx context.Context, sess *Session, id string, d Draft) (Post, error) {
	if err := f.call(); err != nil {
		return Post{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			applyDraft(&f.posts[i], d)
			return f.posts[i], nil
		}
	}
	return Post{}, fmt.Errorf("update post %s: %w", id, ErrNotFound)
}

func (f *fakeEditorRepo) DeletePost(ctx context.Context, sess *Session, id string) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete post %s: %w", id, ErrNotFound)
}

func (f *fakeEditorRepo) UploadImage(ctx context.Context, sess *Session, up Upload) (string, error) {
	if err := f.call(); err != nil {
		return "", err
	}
	return "/uploads/" + up.Filename, nil
}

func (f *fakeEditorRepo) DeleteImage(ctx context.Context, sess *Session, imageURL string) error {
	if err := f.call(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.FeaturedImage == imageURL {
			return fmt.Errorf("delete image: %w", ErrConflict)
		}
	}
	f.deleted = append(f.deleted, imageURL)
	return nil
}

func newTestEditor(posts ...Post) (*EditorController, *fakeEditorRepo) {
	repo := &fakeEditorRepo{posts: posts}
	sess := &Session{Token: "t", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	return NewEditorController(repo, sess), repo
}

func TestEditorSubmitCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestEditor(Post{ID: "old", Title: "Old"})
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	c.New()
	created, err := c.Submit(ctx, EditorForm{Title: "Fresh", Tags: "go, web", Published: true})
	if err != nil {
		t.Fatalf("Submit create: %v", err)
	}
	page := c.Page()
	if got := ids(page.Posts); !reflect.DeepEqual(got, []string{created.ID, "old"}) {
		t.Errorf("posts = %v, want created post prepended", got)
	}
	if page.Message != "Post saved." || page.Form.ID != created.ID {
		t.Errorf("page = %+v", page)
	}
	if c.Page().Message != "" {
		t.Error("status message should show once")
	}

	f := FormFromPost(created)
	f.Title = "Fresh, edited"
	if _, err := c.Submit(ctx, f); err != nil {
		t.Fatalf("Submit update: %v", err)
	}
	page = c.Page()
	if len(page.Posts) != 2 || page.Posts[0].Title != "Fresh, edited" {
		t.Errorf("posts = %+v, want updated in place", page.Posts)
	}
	if !reflect.DeepEqual(page.Posts[0].Tags, []string{"go", "web"}) {
		t.Errorf("tags = %v", page.Posts[0].Tags)
	}
}

func TestEditorSubmitFailureKeepsForm(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestEditor()
	c.Load(ctx)
	repo.err = fmt.Errorf("create post: %w: title required", ErrValidation)

	form := EditorForm{Content: "unsaved words"}
	if _, err := c.Submit(ctx, form); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	page := c.Page()
	if page.Err != "validation failed: title required" {
		t.Errorf("Err = %q", page.Err)
	}
	if page.Form.Content != "unsaved words" || !page.Editing {
		t.Errorf("form lost: %+v", page.Form)
	}
	if len(page.Posts) != 0 {
		t.Errorf("failed save changed the list: %v", ids(page.Posts))
	}
}

func TestEditorDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestEditor(Post{ID: "a"}, Post{ID: "b"})
	c.Load(ctx)
	p, _ := c.Find("a")
	c.Edit(p)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	page := c.Page()
	if got := ids(page.Posts); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("posts = %v", got)
	}
	if page.Editing || page.Form.ID != "" {
		t.Error("deleting the edited post should close the form")
	}

	// Already gone counts as deleted.
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, ok := c.Find("a"); ok {
		t.Error("post still listed")
	}
}

func TestEditorDeleteFailureKeepsPost(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestEditor(Post{ID: "a"})
	c.Load(ctx)
	repo.err = fmt.Errorf("delete post: %w", ErrUnauthenticated)
	if err := c.Delete(ctx, "a"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Find("a"); !ok {
		t.Error("post removed despite failure")
	}
	if c.Page().Err == "" {
		t.Error("expected an error message")
	}
}

func TestEditorAttachImage(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestEditor()
	c.SetForm(EditorForm{Title: "Draft title"})

	u, err := c.AttachImage(ctx, Upload{Filename: "cover.png"})
	if err != nil {
		t.Fatal(err)
	}
	page := c.Page()
	if page.Form.FeaturedImage != u || page.Form.Title != "Draft title" {
		t.Errorf("form = %+v", page.Form)
	}
	if page.Message != "Image uploaded." {
		t.Errorf("Message = %q", page.Message)
	}
}

func TestEditorRemoveImage(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestEditor(Post{ID: "p1", FeaturedImage: "/uploads/used.png"})

	c.SetForm(EditorForm{Title: "Draft", FeaturedImage: "/uploads/spare.png"})
	if err := c.RemoveImage(ctx); err != nil {
		t.Fatal(err)
	}
	page := c.Page()
	if page.Form.FeaturedImage != "" || page.Form.Title != "Draft" || page.Message != "Image deleted." {
		t.Errorf("after remove: form = %+v, message = %q", page.Form, page.Message)
	}
	if !reflect.DeepEqual(repo.deleted, []string{"/uploads/spare.png"}) {
		t.Errorf("deleted = %v", repo.deleted)
	}

	c.SetForm(EditorForm{ID: "p1", FeaturedImage: "/uploads/used.png"})
	if err := c.RemoveImage(ctx); err != nil {
		t.Fatal(err)
	}
	page = c.Page()
	if page.Form.FeaturedImage != "" || !strings.Contains(page.Message, "stays stored") {
		t.Errorf("image in use: form = %+v, message = %q", page.Form, page.Message)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("image in use was deleted: %v", repo.deleted)
	}

	if err := c.RemoveImage(ctx); !errors.Is(err, ErrValidation) {
		t.Errorf("no image: err = %v", err)
	}
	if page := c.Page(); page.Err != "No image to remove." {
		t.Errorf("Err = %q", page.Err)
	}

	repo.err = fmt.Errorf("delete image: %w: disk full", ErrUpload)
	c.SetForm(EditorForm{FeaturedImage: "/uploads/other.png"})
	if err := c.RemoveImage(ctx); !errors.Is(err, ErrUpload) {
		t.Errorf("err = %v, want ErrUpload", err)
	}
	if page := c.Page(); page.Form.FeaturedImage != "/uploads/other.png" || page.Err == "" {
		t.Errorf("failed delete should keep the image: %+v %q", page.Form, page.Err)
	}
}

func TestEditorIgnoresResultsAfterCancel(t *testing.T) {
	c, repo := newTestEditor(Post{ID: "a"})
	c.Load(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	repo.onCall = cancel
	if _, err := c.Submit(ctx, EditorForm{Title: "t"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit err = %v", err)
	}
	if err := c.Delete(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete err = %v", err)
	}
	page := c.Page()
	if got := ids(page.Posts); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("posts = %v, want untouched", got)
	}
	if page.Message != "" || page.Err != "" {
		t.Errorf("status set after cancel: %q %q", page.Message, page.Err)
	}
}

func TestEditorFormDraftRoundTrip(t *testing.T) {
	p := Post{
		ID: "x", Title: "T", Slug: "t", Description: "D", Content: "C",
		MetaTitle: "MT", MetaDescription: "MD", Tags: []string{"a", "b"},
		FeaturedImage: "/i.png", Published: false,
	}
	var got Post
	applyDraft(&got, FormFromPost(p).Draft())
	got.ID = p.ID
	if !reflect.DeepEqual(got, p) {
		t.Errorf("got %+v, want %+v", got, p)
	}
}
