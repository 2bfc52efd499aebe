package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("alice") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("alice") {
		t.Fatal("fourth request should be denied")
	}
}

func TestAllowPerKeyIsolation(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("alice") {
		t.Fatal("alice's first request should be allowed")
	}
	if !l.Allow("bob") {
		t.Fatal("bob's request should not be limited by alice's count")
	}
}

func TestResetClearsKey(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("alice")
	if l.Allow("alice") {
		t.Fatal("alice should be limited before reset")
	}
	l.Reset("alice")
	if !l.Allow("alice") {
		t.Fatal("alice should be allowed again after reset")
	}
}

func TestAllowExpiresOldEntries(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	if !l.Allow("alice") {
		t.Fatal("first request should be allowed")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("alice") {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestCleanupOldEntriesRemovesExpiredKeys(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	l.Allow("alice")
	time.Sleep(20 * time.Millisecond)
	if n := l.CleanupOldEntries(); n != 1 {
		t.Fatalf("expected 1 expired key removed, got %d", n)
	}
	if l.GetCount("alice") != 0 {
		t.Fatal("alice's count should be 0 after cleanup")
	}
}
