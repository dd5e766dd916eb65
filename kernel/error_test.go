package kernel

import "testing"

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "foo",
		Message: "error message",
	}

	if exp, got := "foo: error message", err.Error(); got != exp {
		t.Fatalf("expected to err.Error() to return %q; got %q", exp, got)
	}
}
