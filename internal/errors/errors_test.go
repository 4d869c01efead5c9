package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(GitFailed, "diff failed", fmt.Errorf("exit status 128"))
	want := "[GIT_FAILED] diff failed: exit status 128"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	bare := New(StoreUnavailable, "no database", nil)
	if bare.Error() != "[STORE_UNAVAILABLE] no database" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestUnwrapAndCodeOf(t *testing.T) {
	cause := fmt.Errorf("boom")
	e := New(LLMTimeout, "rewrite failed", cause)

	if !stderrors.Is(e, cause) {
		t.Error("Is() should find the cause through Unwrap")
	}
	if CodeOf(e) != LLMTimeout {
		t.Errorf("CodeOf = %s, want LLM_TIMEOUT", CodeOf(e))
	}

	wrapped := fmt.Errorf("outer: %w", e)
	if CodeOf(wrapped) != LLMTimeout {
		t.Errorf("CodeOf through wrap = %s", CodeOf(wrapped))
	}

	if CodeOf(fmt.Errorf("plain")) != InternalError {
		t.Error("plain errors should map to INTERNAL_ERROR")
	}
}
