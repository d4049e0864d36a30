package ratelimit

import "testing"

func TestAllowConsumesBurst(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("request %d should pass within burst", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("request beyond burst must be rejected")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("first request for a should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("a is exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("b has its own bucket")
	}
}
