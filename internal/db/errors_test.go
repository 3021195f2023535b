package db

import (
	"errors"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	inner := errors.New("connection reset")
	err := error(&Error{Op: OpGet, Err: inner})

	if err.Error() != "GET: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpGet {
		t.Errorf("errors.As = %+v", dbErr)
	}
}
