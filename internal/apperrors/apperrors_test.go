package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfExtractsWrappedKind(t *testing.T) {
	err := New(KindConflict, "Manager.CreateRoom", ErrConflict)
	if got := KindOf(err); got != KindConflict {
		t.Fatalf("KindOf = %v, want %v", got, KindConflict)
	}
}

func TestKindOfDefaultsToInternalForPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf = %v, want %v", got, KindInternal)
	}
}

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := New(KindNotFound, "Manager.GetRoom", ErrNoSuchRoom)
	if !errors.Is(err, ErrNoSuchRoom) {
		t.Fatal("expected errors.Is to see through AppError to the sentinel")
	}
}

func TestAppErrorWrapsAnArbitraryError(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := New(KindStorage, "RoomRepository.Create", inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to unwrap to the inner error")
	}
}

func TestIsNotFoundAndIsConflict(t *testing.T) {
	if !IsNotFound(New(KindNotFound, "op", ErrNotFound)) {
		t.Fatal("expected IsNotFound to match ErrNotFound")
	}
	if !IsConflict(New(KindConflict, "op", ErrConflict)) {
		t.Fatal("expected IsConflict to match ErrConflict")
	}
	if IsConflict(New(KindNotFound, "op", ErrNotFound)) {
		t.Fatal("IsConflict should not match ErrNotFound")
	}
}

func TestResultConstructors(t *testing.T) {
	if ok := Ok("done"); !ok.Success || ok.Message != "done" {
		t.Fatalf("unexpected Ok result: %#v", ok)
	}
	if fail := Fail(ErrNotFound, "missing"); fail.Success || fail.Err != ErrNotFound {
		t.Fatalf("unexpected Fail result: %#v", fail)
	}
}
