package lunatech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("create post: %w: title required", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("upload image: %w", ErrUpload), http.StatusBadRequest},
		{fmt.Errorf("create post: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("sign in: %w", ErrAuth), http.StatusUnauthorized},
		{fmt.Errorf("insert post: %w: dup", ErrConflict), http.StatusConflict},
		{fmt.Errorf("get post x: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("list posts: %w: %w", ErrTransport, context.Canceled), http.StatusServiceUnavailable},
		{fmt.Errorf("list posts: %w: disk full", ErrTransport), http.StatusBadGateway},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.code {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.code)
		}
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("create post: %w: title, content required", ErrValidation), "validation failed: title, content required"},
		{fmt.Errorf("sign in: %w", ErrAuth), "invalid email or password"},
		{fmt.Errorf("delete post 1: %w", ErrNotFound), "not found"},
		{errors.New("driver exploded"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
