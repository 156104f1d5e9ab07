package lunatech

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed-width so that created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps a SQLite database and provides CRUD operations for posts,
// users and profiles.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them. WAL allows
	// concurrent readers, busy_timeout makes writers wait instead of failing
	// with SQLITE_BUSY, and foreign_keys is off by default in SQLite.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, log: log.With().Str("component", "store").Logger()}
	if err := runMigrations(db, s.log); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError("ping", err)
	}
	return nil
}

const postColumns = `p.id, p.title, p.slug, p.description, p.content, p.meta_title, p.meta_description,
	p.tags, p.featured_image, p.author_id, p.created_at, p.published,
	COALESCE(pr.full_name, ''), COALESCE(pr.avatar_url, '')`

const postFrom = ` FROM posts p LEFT JOIN profiles pr ON pr.user_id = p.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var (
		p         Post
		tags      string
		createdAt string
		published int
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Content, &p.MetaTitle, &p.MetaDescription,
		&tags, &p.FeaturedImage, &p.AuthorID, &createdAt, &published,
		&p.Author.FullName, &p.Author.AvatarURL)
	if err != nil {
		return Post{}, err
	}
	p.Tags = decodeTags(tags)
	p.Published = published == 1
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		p.CreatedAt = t
	} else if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t.UTC()
	}
	return p, nil
}

// ListPosts returns posts ordered by creation time, newest first. When
// publishedOnly is set drafts are skipped; a positive limit truncates.
func (s *Store) ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom
	var args []any
	if publishedOnly {
		query += ` WHERE p.published = 1`
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("list posts", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, dbError("list posts", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list posts", err)
	}
	return posts, nil
}

// GetPostBySlug returns a single post by slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.slug = ?`
	if publishedOnly {
		query += ` AND p.published = 1`
	}
	p, err := scanPost(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return Post{}, dbError("get post "+slug, err)
	}
	return p, nil
}

// GetPostByID returns a post by id regardless of published status (for admin).
func (s *Store) GetPostByID(ctx context.Context, id string) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+postFrom+` WHERE p.id = ?`, id))
	if err != nil {
		return Post{}, dbError("get post "+id, err)
	}
	return p, nil
}

// InsertPost stores a new post. The slug must be unique.
func (s *Store) InsertPost(ctx context.Context, p Post) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO posts
		(id, title, slug, description, content, meta_title, meta_description, tags, featured_image, author_id, created_at, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Description, p.Content, p.MetaTitle, p.MetaDescription,
		encodeTags(p.Tags), p.FeaturedImage, p.AuthorID, p.CreatedAt.UTC().Format(timeLayout), boolInt(p.Published))
	if err != nil {
		return dbError("insert post", err)
	}
	return nil
}

// UpdatePost rewrites the editable columns of the post with p.ID. The id,
// author and creation time are never touched.
func (s *Store) UpdatePost(ctx context.Context, p Post) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET
		title = ?, slug = ?, description = ?, content = ?, meta_title = ?, meta_description = ?,
		tags = ?, featured_image = ?, published = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Description, p.Content, p.MetaTitle, p.MetaDescription,
		encodeTags(p.Tags), p.FeaturedImage, boolInt(p.Published), p.ID)
	if err != nil {
		return dbError("update post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update post %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeletePost removes a post by id. ErrNotFound reports that nothing matched.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return dbError("delete post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("delete post", err)
	}
	if n == 0 {
		return fmt.Errorf("delete post %s: %w", id, ErrNotFound)
	}
	return nil
}

// User is an account of the authentication provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	Profile      Author
}

// CreateUser inserts a user and its profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("create user", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return dbError("create user", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id, full_name, avatar_url) VALUES (?, ?, ?)`,
		u.ID, u.Profile.FullName, u.Profile.AvatarURL); err != nil {
		return dbError("create user", err)
	}
	if err := tx.Commit(); err != nil {
		return dbError("create user", err)
	}
	return nil
}

// UserByEmail looks a user up by e-mail, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.queryUser(ctx, "user "+email, `u.email = ?`, email)
}

// UserByID looks a user up by id.
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.queryUser(ctx, "user "+id, `u.id = ?`, id)
}

func (s *Store) queryUser(ctx context.Context, op, where string, arg any) (User, error) {
	var (
		u         User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT u.id, u.email, u.password_hash, u.created_at,
		COALESCE(pr.full_name, ''), COALESCE(pr.avatar_url, '')
		FROM users u LEFT JOIN profiles pr ON pr.user_id = u.id WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt, &u.Profile.FullName, &u.Profile.AvatarURL)
	if err != nil {
		return User{}, dbError(op, err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return u, nil
}

// CountPostsWithImage returns how many posts use imageURL as their featured image.
func (s *Store) CountPostsWithImage(ctx context.Context, imageURL string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE featured_image = ?`, imageURL).Scan(&n); err != nil {
		return 0, dbError("count image uses", err)
	}
	return n, nil
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, dbError("count users", err)
	}
	return n, nil
}

// dbError translates a driver error into the error taxonomy.
func dbError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %s", op, ErrConflict, uniqueTarget(err))
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueTarget names the violated column for the user-facing message.
func uniqueTarget(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "posts.slug"):
		return "a post with this slug already exists"
	case strings.Contains(msg, "users.email"):
		return "a user with this email already exists"
	default:
		return "record already exists"
	}
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
