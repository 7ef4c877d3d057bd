package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("load patient: %w", NotFound("patient not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected wrapped not found to match sentinel")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatal("not found must not match forbidden")
	}
}

func TestKindOfUnknownIsInternal(t *testing.T) {
	if got := KindOf(sql.ErrConnDone); got != KindInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if got := KindOf(Conflict("dup")); got != KindConflict {
		t.Fatalf("expected conflict, got %s", got)
	}
}

func TestInternalKeepsCause(t *testing.T) {
	err := Internal(sql.ErrConnDone)
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Message != "internal server error" {
		t.Fatalf("unexpected message %q", err.Message)
	}
}
