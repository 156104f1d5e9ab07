package lunatech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("list: %w: %w", ErrTransport, context.Canceled), "canceled"},
		{fmt.Errorf("create: %w", ErrValidation), "validation"},
		{fmt.Errorf("create: %w", ErrUnauthenticated), "unauthenticated"},
		{fmt.Errorf("insert: %w", ErrConflict), "conflict"},
		{fmt.Errorf("get: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("upload: %w", ErrUpload), "upload"},
		{errors.New("disk"), "transport"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRepoMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newRepoMetrics(reg)
	m.observe("create", nil)
	m.observe("create", nil)
	m.observe("create", ErrConflict)

	if got := testutil.ToFloat64(m.ops.WithLabelValues("create", "ok")); got != 2 {
		t.Errorf("create/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ops.WithLabelValues("create", "conflict")); got != 1 {
		t.Errorf("create/conflict = %v, want 1", got)
	}

	var nilMetrics *repoMetrics
	nilMetrics.observe("create", nil)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(out, `"service":"lunatech"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("output = %s", out)
	}

	if got := NewLogger("nonsense", "", &buf).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
}
