package context

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestWithCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-123")
	if got := GetCorrelationID(ctx); got != "corr-123" {
		t.Errorf("expected 'corr-123', got %q", got)
	}
}

func TestGetCorrelationID_Missing(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}

	type foreignKey string
	ctx := context.WithValue(context.Background(), foreignKey("correlation_id"), "not-ours")
	if got := GetCorrelationID(ctx); got != "" {
		t.Errorf("expected foreign key to be ignored, got %q", got)
	}
}

func TestResolveCorrelationID(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"first non blank wins", []string{"", "  ", "from-header", "request-id"}, "from-header"},
		{"trimmed", []string{"  padded  "}, "padded"},
		{"too long skipped", []string{strings.Repeat("x", 200), "request-id"}, "request-id"},
		{"control chars skipped", []string{"bad\nid", "request-id"}, "request-id"},
		{"spaces inside skipped", []string{"two words", "request-id"}, "request-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCorrelationID(tt.candidates...); got != tt.want {
				t.Errorf("ResolveCorrelationID(%q) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestResolveCorrelationID_Generates(t *testing.T) {
	generated := ResolveCorrelationID("", " ")
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected a uuid, got %q: %v", generated, err)
	}
	if other := ResolveCorrelationID(); other == generated {
		t.Errorf("expected a fresh id per call, got %q twice", generated)
	}
}

func TestWithExchange(t *testing.T) {
	if _, ok := GetExchange(context.Background()); ok {
		t.Error("expected no exchange on a bare context")
	}

	ctx := WithExchange(context.Background(), Exchange{Operation: "invoice", DocumentNumber: "SETP990000001"})
	ex, ok := GetExchange(ctx)
	if !ok {
		t.Fatal("expected exchange in context")
	}
	if ex.Operation != "invoice" || ex.DocumentNumber != "SETP990000001" {
		t.Errorf("unexpected exchange %+v", ex)
	}
}
