package fault

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validation("bad input"), KindValidation},
		{Forbidden("not yours"), KindForbidden},
		{NotFound("trip %s not found", "t1"), KindNotFound},
		{Conflict("version mismatch"), KindConflict},
		{RateLimited(30 * time.Second), KindRateLimited},
		{Internal("commit failed", errors.New("io error")), KindInternal},
		{errors.New("plain"), KindInternal},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestWrappedClassificationSurvives(t *testing.T) {
	inner := Conflict("trip changed")
	wrapped := fmt.Errorf("accept bid: %w", inner)

	if !IsConflict(wrapped) {
		t.Errorf("wrapping lost the conflict kind")
	}
	fe, ok := As(wrapped)
	if !ok || fe.Kind != KindConflict {
		t.Errorf("As(wrapped) = %v, %v", fe, ok)
	}
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := RateLimited(42 * time.Second)
	fe, ok := As(err)
	if !ok {
		t.Fatal("not a fault error")
	}
	if fe.RetryAfter != 42*time.Second {
		t.Errorf("retry after = %v", fe.RetryAfter)
	}
	if want := "rate limit exceeded, retry in 42 seconds"; fe.Error() != want {
		t.Errorf("message = %q, want %q", fe.Error(), want)
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("database error", cause)
	if !errors.Is(err, cause) {
		t.Errorf("cause not unwrapped")
	}
	if err.Error() != "database error: connection reset" {
		t.Errorf("message = %q", err.Error())
	}
}
