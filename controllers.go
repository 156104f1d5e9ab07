package lunatech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// FilterPosts keeps the posts whose title or description contains search
// (case-insensitively) and, when tag is set, that carry tag.
func FilterPosts(posts []Post, search, tag string) []Post {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTag(p Post, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListController backs the blog index: one load, then local filtering.
type ListController struct {
	source PostLister

	mu     sync.Mutex
	loaded bool
	posts  []Post
	search string
	tag    string
	err    string
}

func NewListController(source PostLister) *ListController {
	return &ListController{source: source}
}

// Load fetches the posts once. Later calls do nothing.
func (c *ListController) Load(ctx context.Context) {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	posts, err := c.source.ListPosts(ctx)
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.loaded = true
	if err != nil {
		c.err = Message(err)
		c.posts = nil
		return
	}
	c.posts = posts
}

func (c *ListController) SetSearch(s string) {
	c.mu.Lock()
	c.search = s
	c.mu.Unlock()
}

func (c *ListController) SetTag(t string) {
	c.mu.Lock()
	c.tag = strings.TrimSpace(t)
	c.mu.Unlock()
}

// Visible returns the loaded posts matching the current search and tag.
func (c *ListController) Visible() []Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilterPosts(c.posts, c.search, c.tag)
}

// Tags returns the vocabulary for the tag filter.
func (c *ListController) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CollectTagVocabulary(c.posts)
}

func (c *ListController) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Page snapshots the controller for the blog index view.
func (c *ListController) Page() BlogListPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BlogListPage{
		Posts:  FilterPosts(c.posts, c.search, c.tag),
		Tags:   CollectTagVocabulary(c.posts),
		Search: c.search,
		Tag:    c.tag,
		Total:  len(c.posts),
		Err:    c.err,
	}
}

// DetailState is the render state of the post page.
type DetailState int

const (
	DetailLoading DetailState = iota
	DetailLoaded
	DetailNotFound
	DetailError
)

// PostGetter loads a single published post with its HTML rendered.
type PostGetter interface {
	GetPostBySlug(ctx context.Context, slug string) (Post, error)
}

// DetailController backs the post page.
type DetailController struct {
	source PostGetter

	mu    sync.Mutex
	slug  string
	state DetailState
	post  Post
	err   string
}

func NewDetailController(source PostGetter) *DetailController {
	return &DetailController{source: source}
}

// Load fetches the post for slug. A result is dropped when ctx is done or
// when another Load for a different slug started in the meantime.
func (c *DetailController) Load(ctx context.Context, slug string) {
	c.mu.Lock()
	c.slug = slug
	c.state = DetailLoading
	c.post = Post{}
	c.err = ""
	c.mu.Unlock()

	post, err := c.source.GetPostBySlug(ctx, slug)
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slug != slug {
		return
	}
	switch {
	case err == nil:
		c.state = DetailLoaded
		c.post = post
	case errors.Is(err, ErrNotFound):
		c.state = DetailNotFound
	default:
		c.state = DetailError
		c.err = Message(err)
	}
}

func (c *DetailController) State() DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DetailController) Post() Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.post
}

func (c *DetailController) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// EditorRepository is what the editor needs from the content repository.
type EditorRepository interface {
	ListAllPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, sess *Session, d Draft) (Post, error)
	UpdatePost(ctx context.Context, sess *Session, id string, patch Draft) (Post, error)
	DeletePost(ctx context.Context, sess *Session, id string) error
	UploadImage(ctx context.Context, sess *Session, up Upload) (string, error)
	DeleteImage(ctx context.Context, sess *Session, imageURL string) error
}

// EditorForm is the text state of the editor form. Tags is the
// comma-separated field as typed.
type EditorForm struct {
	ID              string
	Title           string
	Slug            string
	Description     string
	Content         string
	MetaTitle       string
	MetaDescription string
	Tags            string
	FeaturedImage   string
	Published       bool
}

// FormFromPost loads an existing post into the editor form.
func FormFromPost(p Post) EditorForm {
	return EditorForm{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Description:     p.Description,
		Content:         p.Content,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Tags:            JoinTags(p.Tags),
		FeaturedImage:   p.FeaturedImage,
		Published:       p.Published,
	}
}

// Draft converts the form to a Draft with every field set.
func (f EditorForm) Draft() Draft {
	return Draft{
		Title:           Ptr(f.Title),
		Slug:            Ptr(f.Slug),
		Description:     Ptr(f.Description),
		Content:         Ptr(f.Content),
		MetaTitle:       Ptr(f.MetaTitle),
		MetaDescription: Ptr(f.MetaDescription),
		Tags:            ParseTags(f.Tags),
		FeaturedImage:   Ptr(f.FeaturedImage),
		Published:       Ptr(f.Published),
	}
}

// EditorController holds the admin post list and the one draft being
// edited. There is one per admin session.
type EditorController struct {
	repo    EditorRepository
	session *Session

	mu      sync.Mutex
	loaded  bool
	posts   []Post
	form    EditorForm
	editing bool
	message string
	err     string
}

func NewEditorController(repo EditorRepository, sess *Session) *EditorController {
	return &EditorController{repo: repo, session: sess}
}

// Load fetches the post list unless it is already loaded.
func (c *EditorController) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload fetches the post list again.
func (c *EditorController) Reload(ctx context.Context) error {
	posts, err := c.repo.ListAllPosts(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = Message(err)
		return err
	}
	c.posts = posts
	c.loaded = true
	return nil
}

// New resets the form to an empty draft.
func (c *EditorController) New() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = EditorForm{Published: true}
	c.editing = true
	c.message, c.err = "", ""
}

// Edit loads p into the form.
func (c *EditorController) Edit(p Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormFromPost(p)
	c.editing = true
	c.message, c.err = "", ""
}

// SetForm replaces the form contents without saving, keeping unsaved edits
// across an image upload.
func (c *EditorController) SetForm(f EditorForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
	c.editing = true
}

// Cancel closes the form.
func (c *EditorController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = EditorForm{}
	c.editing = false
}

// Submit saves f: a create when f.ID is empty, an update otherwise. The
// saved post replaces its entry in the list, or is prepended to it.
// Failures are kept as the error message and returned.
func (c *EditorController) Submit(ctx context.Context, f EditorForm) (Post, error) {
	c.SetForm(f)

	var (
		saved Post
		err   error
	)
	if f.ID == "" {
		saved, err = c.repo.CreatePost(ctx, c.session, f.Draft())
	} else {
		saved, err = c.repo.UpdatePost(ctx, c.session, f.ID, f.Draft())
	}
	if ctx.Err() != nil {
		return Post{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.message, c.err = "", Message(err)
		return Post{}, err
	}
	c.posts = mergePost(c.posts, saved)
	c.form = FormFromPost(saved)
	c.message, c.err = "Post saved.", ""
	return saved, nil
}

// mergePost replaces the post with the same id or prepends p.
func mergePost(posts []Post, p Post) []Post {
	for i := range posts {
		if posts[i].ID == p.ID {
			out := append([]Post{}, posts...)
			out[i] = p
			return out
		}
	}
	return append([]Post{p}, posts...)
}

// Delete removes the post with id. A post that is already gone counts as deleted.
func (c *EditorController) Delete(ctx context.Context, id string) error {
	err := c.repo.DeletePost(ctx, c.session, id)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.message, c.err = "", Message(err)
		return err
	}
	kept := make([]Post, 0, len(c.posts))
	for _, p := range c.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.posts = kept
	if c.form.ID == id {
		c.form = EditorForm{}
		c.editing = false
	}
	c.message, c.err = "Post deleted.", ""
	return nil
}

// AttachImage uploads an image and sets it as the featured image of the
// form. The post itself changes only on the next Submit.
func (c *EditorController) AttachImage(ctx context.Context, up Upload) (string, error) {
	u, err := c.repo.UploadImage(ctx, c.session, up)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.message, c.err = "", Message(err)
		return "", err
	}
	c.form.FeaturedImage = u
	c.editing = true
	c.message, c.err = "Image uploaded.", ""
	return u, nil
}

// RemoveImage clears the featured image of the form and deletes the stored
// file. A file that a saved post still shows is only detached from the form.
func (c *EditorController) RemoveImage(ctx context.Context) error {
	c.mu.Lock()
	u := c.form.FeaturedImage
	c.mu.Unlock()
	if u == "" {
		c.fail("No image to remove.")
		return fmt.Errorf("remove image: %w: no image", ErrValidation)
	}

	err := c.repo.DeleteImage(ctx, c.session, u)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err == nil:
		c.message, c.err = "Image deleted.", ""
	case errors.Is(err, ErrConflict):
		c.message, c.err = "Image removed from the form. It stays stored while a saved post uses it.", ""
	default:
		c.message, c.err = "", Message(err)
		return err
	}
	c.form.FeaturedImage = ""
	return nil
}

// fail shows msg as the editor error without a repository call.
func (c *EditorController) fail(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message, c.err = "", msg
}

// Find returns the loaded post with id.
func (c *EditorController) Find(id string) (Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

// Page snapshots the editor for rendering and clears the one-shot
// status messages.
func (c *EditorController) Page() EditorPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := EditorPage{
		Posts:   append([]Post{}, c.posts...),
		Form:    c.form,
		Editing: c.editing,
		Message: c.message,
		Err:     c.err,
	}
	c.message, c.err = "", ""
	return page
}
