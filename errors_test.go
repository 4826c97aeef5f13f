package maybenot

import (
	"errors"
	"testing"
)

func TestError_Is_MatchesByKindOnly(t *testing.T) {
	// GIVEN an error produced deep inside a wrapped call chain
	err := wrapError(KindDistribution, newError(KindDistribution, "inner"), "outer detail")

	// WHEN compared with errors.Is against a bare Kind sentinel
	// THEN it matches regardless of Detail
	if !errors.Is(err, ErrKind(KindDistribution)) {
		t.Fatal("expected errors.Is to match by Kind")
	}
	if errors.Is(err, ErrKind(KindMachine)) {
		t.Fatal("expected errors.Is not to match a different Kind")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := newError(KindMachine, "inner detail")
	outer := wrapError(KindMachine, inner, "outer detail")
	if errors.Unwrap(outer) != inner {
		t.Fatal("expected Unwrap to return the wrapped error")
	}
}
