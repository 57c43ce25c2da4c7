package apperrors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeNotFound, "session not found")
	if CodeOf(err) != CodeNotFound {
		t.Errorf("CodeOf = %q, want %q", CodeOf(err), CodeNotFound)
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}

	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf on a plain error should be empty")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeConflict, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	cause := fmt.Errorf("db down")
	err := Wrap(cause, CodeConflict, "claim failed")
	if !IsConflict(err) {
		t.Error("wrapped error should keep its code")
	}
	if err.Unwrap() == nil {
		t.Error("wrapped error should expose a cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeDuplicateRow, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeBalanceMismatch, http.StatusUnprocessableEntity},
		{CodeUnresolvedItems, http.StatusUnprocessableEntity},
		{CodeInvalidStateTransition, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		if got := HTTPStatus(New(c.code, "x")); got != c.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", c.code, got, c.want)
		}
	}
	if got := HTTPStatus(fmt.Errorf("boom")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, want 500", got)
	}
}
