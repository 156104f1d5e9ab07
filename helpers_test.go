package lunatech

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Malmeu/LunatechWeb-main/markdown"
	"github.com/Malmeu/LunatechWeb-main/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "blog.db"), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, email string) User {
	t.Helper()
	u, err := AddUser(context.Background(), s, email, "correct-horse", Author{FullName: "Ada Admin", AvatarURL: "/a.png"})
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	return u
}

func testSession(u User) *Session {
	return &Session{
		Token:     "token-" + u.ID,
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// setupTestRepo returns a repository over a fresh database with one user
// and a local object store.
func setupTestRepo(t *testing.T) (*Repository, *Session, *storage.Local) {
	t.Helper()
	s := setupTestStore(t)
	u := seedUser(t, s, "admin@example.com")
	objects, err := storage.NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	repo := NewRepository(s, markdown.New(), objects, zerolog.New(io.Discard), nil)
	return repo, testSession(u), objects
}

func validDraft(title string) Draft {
	return Draft{
		Title:       Ptr(title),
		Description: Ptr("Summary of " + title),
		Content:     Ptr("# " + title + "\n\nBody text."),
		Tags:        []string{"go", "web"},
	}
}
