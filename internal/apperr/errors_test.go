package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load post: %w", NotFound("post 7 not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected %v to match ErrNotFound", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("did not expect %v to match ErrForbidden", err)
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found kind, got %s", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindRemote {
		t.Fatalf("plain errors should classify as remote")
	}
}

func TestStatusRoundTrip(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadRequest, KindValidation},
		{http.StatusInternalServerError, KindRemote},
	}
	for _, c := range cases {
		err := FromStatus(c.status, "")
		if err.Kind != c.kind {
			t.Errorf("status %d: expected kind %s, got %s", c.status, c.kind, err.Kind)
		}
		if got := Status(err); got != c.status {
			t.Errorf("kind %s: expected status %d, got %d", c.kind, c.status, got)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindRemote, "fetch posts", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected remote kind match")
	}
}
