package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPutAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "/uploads/")
	if err != nil {
		t.Fatal(err)
	}

	obj := Object{Key: "2024/cover.png", Body: strings.NewReader("png bytes"), ContentType: "image/png"}
	if err := l.Put(ctx, obj); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "2024", "cover.png"))
	if err != nil || string(data) != "png bytes" {
		t.Fatalf("stored %q, %v", data, err)
	}
	if got := l.URL(obj.Key); got != "/uploads/2024/cover.png" {
		t.Errorf("URL = %q", got)
	}

	if err := l.Put(ctx, Object{Key: "2024/cover.png", Body: strings.NewReader("other")}); err == nil {
		t.Error("overwriting an existing object should fail")
	}

	if err := l.Delete(ctx, "2024/cover.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2024", "cover.png")); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := l.Delete(ctx, "2024/cover.png"); err != nil {
		t.Errorf("deleting a missing object: %v", err)
	}
}

func TestLocalRejectsBadKeys(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "/abs.png", "../escape.png", "a/../../b.png", "a//b.png", `a\b.png`, "./a.png"} {
		err := l.Put(context.Background(), Object{Key: key, Body: strings.NewReader("x")})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) err = %v, want ErrInvalidKey", key, err)
		}
		if err := l.Delete(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Delete(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestLocalPutCanceled(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Put(ctx, Object{Key: "a.png", Body: strings.NewReader("x")}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(l.Dir(), "a.png")); !os.IsNotExist(err) {
		t.Error("canceled put wrote a file")
	}
}

func TestS3URLAndKeys(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Error("expected an error without a bucket")
	}

	s, err := NewS3(context.Background(), S3Config{
		Bucket:    "media",
		Endpoint:  "http://127.0.0.1:1",
		AccessKey: "key",
		SecretKey: "secret",
		PublicURL: "https://cdn.example.com/media/",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.URL("a.png"); got != "https://cdn.example.com/media/a.png" {
		t.Errorf("URL = %q", got)
	}
	if err := s.Put(context.Background(), Object{Key: "../a.png", Body: strings.NewReader("x")}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("err = %v, want ErrInvalidKey", err)
	}
}
