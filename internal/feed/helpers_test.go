package feed_test

import "testing"

// requireNoError fails the test immediately if err is non-nil.
func requireNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// requireLen fails the test immediately if the slice length does not match.
func requireLen[T any](t *testing.T, items []T, expected int) {
	t.Helper()

	if len(items) != expected {
		t.Fatalf("expected %d items, got %d", expected, len(items))
	}
}

// assertEqual fails the test if got does not equal want.
func assertEqual(t *testing.T, want, got string) {
	t.Helper()

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
