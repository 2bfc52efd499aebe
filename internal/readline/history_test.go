package readline

import "testing"

func TestAddPrependsMostRecentFirst(t *testing.T) {
	h := NewHistory(10)
	h.Add("look")
	h.Add("north")
	if got := h.Get(0); got != "north" {
		t.Errorf("Get(0) = %q, want %q", got, "north")
	}
	if got := h.Get(1); got != "look" {
		t.Errorf("Get(1) = %q, want %q", got, "look")
	}
}

func TestAddSkipsBlankAndConsecutiveDuplicate(t *testing.T) {
	h := NewHistory(10)
	h.Add("look")
	h.Add("")
	h.Add("look")
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	h.Add("north")
	h.Add("look")
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 after non-consecutive repeat", h.Len())
	}
}

func TestAddTrimsToMaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Add("one")
	h.Add("two")
	h.Add("three")
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if got := h.Get(0); got != "three" {
		t.Errorf("Get(0) = %q, want %q", got, "three")
	}
	if got := h.Get(1); got != "two" {
		t.Errorf("Get(1) = %q, want %q", got, "two")
	}
}

func TestGetOutOfRange(t *testing.T) {
	h := NewHistory(5)
	h.Add("look")
	if got := h.Get(5); got != "" {
		t.Errorf("Get(5) = %q, want empty", got)
	}
	if got := h.Get(-1); got != "" {
		t.Errorf("Get(-1) = %q, want empty", got)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	h := NewHistory(5)
	h.Add("look")
	h.Add("north")
	all := h.All()
	all[0] = "tampered"
	if h.Get(0) != "north" {
		t.Error("All() should return a defensive copy")
	}
}

func TestExpandBangBang(t *testing.T) {
	h := NewHistory(5)
	h.Add("attack goblin")
	if got := h.Expand("!!"); got != "attack goblin" {
		t.Errorf("Expand(!!) = %q, want %q", got, "attack goblin")
	}
}

func TestExpandBangN(t *testing.T) {
	h := NewHistory(5)
	h.Add("look")
	h.Add("north")
	h.Add("inventory")
	if got := h.Expand("!1"); got != "inventory" {
		t.Errorf("Expand(!1) = %q, want %q", got, "inventory")
	}
	if got := h.Expand("!3"); got != "look" {
		t.Errorf("Expand(!3) = %q, want %q", got, "look")
	}
}

func TestExpandLeavesOrdinaryLineUnchanged(t *testing.T) {
	h := NewHistory(5)
	h.Add("look")
	if got := h.Expand("north"); got != "north" {
		t.Errorf("Expand(north) = %q, want unchanged", got)
	}
	if got := h.Expand("!"); got != "!" {
		t.Errorf("Expand(!) = %q, want unchanged", got)
	}
}

func TestExpandOutOfRangeReturnsEmpty(t *testing.T) {
	h := NewHistory(5)
	h.Add("look")
	if got := h.Expand("!9"); got != "" {
		t.Errorf("Expand(!9) = %q, want empty", got)
	}
}
