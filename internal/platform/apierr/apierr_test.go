package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", Validation("session id is required"), http.StatusBadRequest, "validation_failed"},
		{"wrapped not found", fmt.Errorf("resume: %w", NotFound("session")), http.StatusNotFound, "not_found"},
		{"bare sentinel", fmt.Errorf("load: %w", ErrConflict), http.StatusConflict, "conflict"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := StatusOf(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("StatusOf: got=(%d,%s) want=(%d,%s)", status, code, tc.status, tc.code)
			}
		})
	}
}

func TestValidationMatchesSentinel(t *testing.T) {
	if !errors.Is(Validation("x"), ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument in chain")
	}
}
