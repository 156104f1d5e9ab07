package lunatech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Malmeu/LunatechWeb-main/markdown"
	"github.com/Malmeu/LunatechWeb-main/storage"
)

// ObjectStore holds uploaded images.
type ObjectStore = storage.Store

const defaultRecentLimit = 3

// Repository is the only way handlers and controllers read or write posts.
// Every failure carries exactly one of the taxonomy errors.
type Repository struct {
	store   *Store
	md      *markdown.Renderer
	objects ObjectStore
	metrics *repoMetrics
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	onWrite []func()
}

// NewRepository builds a Repository. objects may be nil, in which case
// uploads fail; reg may be nil to skip metric registration.
func NewRepository(store *Store, md *markdown.Renderer, objects ObjectStore, log zerolog.Logger, reg prometheus.Registerer) *Repository {
	return &Repository{
		store:   store,
		md:      md,
		objects: objects,
		metrics: newRepoMetrics(reg),
		log:     log.With().Str("component", "repository").Logger(),
		now:     time.Now,
	}
}

// OnWrite registers fn to run after every successful create, update or delete.
func (r *Repository) OnWrite(fn func()) {
	r.mu.Lock()
	r.onWrite = append(r.onWrite, fn)
	r.mu.Unlock()
}

func (r *Repository) written() {
	r.mu.RLock()
	hooks := append([]func(){}, r.onWrite...)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// ListPosts returns published posts, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := r.store.ListPosts(ctx, true, 0)
	r.metrics.observe("list", err)
	return posts, err
}

// ListAllPosts returns every post including unpublished ones, newest first.
func (r *Repository) ListAllPosts(ctx context.Context) ([]Post, error) {
	posts, err := r.store.ListPosts(ctx, false, 0)
	r.metrics.observe("list_all", err)
	return posts, err
}

// ListRecentPosts returns at most limit published posts; limit <= 0 means 3.
func (r *Repository) ListRecentPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	posts, err := r.store.ListPosts(ctx, true, limit)
	r.metrics.observe("list_recent", err)
	return posts, err
}

// GetPostBySlug returns a published post with ContentHTML rendered.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	p, err := r.store.GetPostBySlug(ctx, slug, true)
	if err == nil {
		err = r.render(&p)
	}
	r.metrics.observe("get", err)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// GetPostByID returns a post in any publication state. Content is left as Markdown.
func (r *Repository) GetPostByID(ctx context.Context, id string) (Post, error) {
	p, err := r.store.GetPostByID(ctx, id)
	r.metrics.observe("get_by_id", err)
	return p, err
}

func (r *Repository) render(p *Post) error {
	html, err := r.md.Render(p.Content)
	if err != nil {
		return fmt.Errorf("get post %s: %w: %w", p.Slug, ErrTransport, err)
	}
	p.ContentHTML = html
	return nil
}

// CreatePost stores a new post authored by the session's user. The id,
// author and creation time are assigned here; an empty slug is derived
// from the title.
func (r *Repository) CreatePost(ctx context.Context, sess *Session, d Draft) (Post, error) {
	p, err := r.createPost(ctx, sess, d)
	r.metrics.observe("create", err)
	return p, err
}

func (r *Repository) createPost(ctx context.Context, sess *Session, d Draft) (Post, error) {
	if err := r.authorize(sess); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	p := Post{
		ID:        uuid.NewString(),
		Tags:      []string{},
		AuthorID:  sess.UserID,
		CreatedAt: r.now().UTC(),
		Published: true,
	}
	applyDraft(&p, d)
	derived := p.Slug == ""
	if derived {
		p.Slug = DeriveSlug(p.Title)
	}
	if err := validatePost(p, derived); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	if err := r.store.InsertPost(ctx, p); err != nil {
		return Post{}, err
	}
	r.log.Info().Str("id", p.ID).Str("slug", p.Slug).Str("author_id", p.AuthorID).Msg("post created")
	r.written()
	return r.reread(ctx, p)
}

// UpdatePost applies the non-nil fields of patch to the post with id.
// The id, author and creation time never change.
func (r *Repository) UpdatePost(ctx context.Context, sess *Session, id string, patch Draft) (Post, error) {
	p, err := r.updatePost(ctx, sess, id, patch)
	r.metrics.observe("update", err)
	return p, err
}

func (r *Repository) updatePost(ctx context.Context, sess *Session, id string, patch Draft) (Post, error) {
	if err := r.authorize(sess); err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	p, err := r.store.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	applyDraft(&p, patch)
	derived := p.Slug == ""
	if derived {
		p.Slug = DeriveSlug(p.Title)
	}
	if err := validatePost(p, derived); err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	if err := r.store.UpdatePost(ctx, p); err != nil {
		return Post{}, err
	}
	r.log.Info().Str("id", p.ID).Str("slug", p.Slug).Msg("post updated")
	r.written()
	return r.reread(ctx, p)
}

// reread fetches the stored row so the caller gets the author join. If the
// read fails the written post is returned as is.
func (r *Repository) reread(ctx context.Context, p Post) (Post, error) {
	stored, err := r.store.GetPostByID(ctx, p.ID)
	if err != nil {
		r.log.Warn().Err(err).Str("id", p.ID).Msg("re-read after write")
		return p, nil
	}
	return stored, nil
}

// DeletePost removes the post with id. It returns ErrNotFound when there
// was nothing to remove; callers that only care about the end state can
// treat that as success.
func (r *Repository) DeletePost(ctx context.Context, sess *Session, id string) error {
	err := r.deletePost(ctx, sess, id)
	r.metrics.observe("delete", err)
	return err
}

func (r *Repository) deletePost(ctx context.Context, sess *Session, id string) error {
	if err := r.authorize(sess); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := r.store.DeletePost(ctx, id); err != nil {
		return err
	}
	r.log.Info().Str("id", id).Msg("post deleted")
	r.written()
	return nil
}

// UploadImage stores an image under a random key and returns its public URL.
// It does not touch any post; the caller attaches the URL on its next save.
func (r *Repository) UploadImage(ctx context.Context, sess *Session, up Upload) (string, error) {
	u, err := r.uploadImage(ctx, sess, up)
	r.metrics.observe("upload", err)
	return u, err
}

func (r *Repository) uploadImage(ctx context.Context, sess *Session, up Upload) (string, error) {
	if err := r.authorize(sess); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if r.objects == nil {
		return "", fmt.Errorf("upload image: %w: no object store configured", ErrUpload)
	}
	obj, err := processImage(up)
	if err != nil {
		return "", err
	}
	if err := r.objects.Put(ctx, obj); err != nil {
		return "", fmt.Errorf("upload image: %w: %v", ErrUpload, err)
	}
	r.log.Info().Str("key", obj.Key).Int64("size", obj.Size).Msg("image uploaded")
	return r.objects.URL(obj.Key), nil
}

// DeleteImage removes an uploaded image from the object store. Images that
// a saved post still shows are kept and reported as ErrConflict.
func (r *Repository) DeleteImage(ctx context.Context, sess *Session, imageURL string) error {
	err := r.deleteImage(ctx, sess, imageURL)
	r.metrics.observe("delete_image", err)
	return err
}

func (r *Repository) deleteImage(ctx context.Context, sess *Session, imageURL string) error {
	if err := r.authorize(sess); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if r.objects == nil {
		return fmt.Errorf("delete image: %w: no object store configured", ErrUpload)
	}
	key, ok := storage.KeyForURL(r.objects, imageURL)
	if !ok {
		return fmt.Errorf("delete image: %w: not an uploaded image", ErrValidation)
	}
	n, err := r.store.CountPostsWithImage(ctx, imageURL)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("delete image: %w: image is used by %d post(s)", ErrConflict, n)
	}
	if err := r.objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete image: %w: %v", ErrUpload, err)
	}
	r.log.Info().Str("key", key).Msg("image deleted")
	return nil
}

func (r *Repository) authorize(sess *Session) error {
	if !sess.Valid(r.now()) {
		return ErrUnauthenticated
	}
	return nil
}

func applyDraft(p *Post, d Draft) {
	if d.Title != nil {
		p.Title = strings.TrimSpace(*d.Title)
	}
	if d.Slug != nil {
		p.Slug = strings.TrimSpace(*d.Slug)
	}
	if d.Description != nil {
		p.Description = strings.TrimSpace(*d.Description)
	}
	if d.Content != nil {
		p.Content = *d.Content
	}
	if d.MetaTitle != nil {
		p.MetaTitle = strings.TrimSpace(*d.MetaTitle)
	}
	if d.MetaDescription != nil {
		p.MetaDescription = strings.TrimSpace(*d.MetaDescription)
	}
	if d.Tags != nil {
		p.Tags = append([]string{}, d.Tags...)
	}
	if d.FeaturedImage != nil {
		p.FeaturedImage = strings.TrimSpace(*d.FeaturedImage)
	}
	if d.Published != nil {
		p.Published = *d.Published
	}
}

// validatePost checks the required fields and the slug. derived is set
// when the slug was computed from the title rather than typed.
func validatePost(p Post, derived bool) error {
	var missing []string
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(p.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	if derived && (p.Slug == "" || strings.ContainsAny(p.Slug, "/?#")) {
		return fmt.Errorf("%w: the title produces an invalid slug; enter one", ErrValidation)
	}
	if strings.ContainsAny(p.Slug, "/?#") {
		return fmt.Errorf("%w: slug must not contain /, ? or #", ErrValidation)
	}
	return nil
}
