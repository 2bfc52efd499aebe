package dialogue

import "testing"

func sampleTree() *Tree {
	return &Tree{
		TemplateID:  "old_hermit",
		SpeakerName: "Old Hermit",
		Root:        "greeting",
		Nodes: map[string]*Node{
			"greeting": {
				ID:   "greeting",
				Kind: NodeChoice,
				Text: "What brings you here, traveler?",
				Choices: []Choice{
					{Text: "Tell me about the ruins.", Next: "ruins"},
					{Text: "Nothing, farewell.", Next: "farewell"},
				},
			},
			"ruins": {
				ID:   "ruins",
				Kind: NodeLine,
				Text: "They were not always ruins.",
				Next: "greeting",
			},
			"farewell": {
				ID:   "farewell",
				Kind: NodeEnd,
				Text: "Safe travels.",
			},
		},
	}
}

func TestStartReturnsRootNode(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())

	node, err := m.Start("alice", "old_hermit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.ID != "greeting" {
		t.Errorf("got node %q, want greeting", node.ID)
	}
}

func TestStartUnknownTemplate(t *testing.T) {
	m := NewManager()
	if _, err := m.Start("alice", "nonexistent"); err == nil {
		t.Error("expected error starting a conversation with no registered tree")
	}
}

func TestAdvanceFollowsChoice(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())
	m.Start("alice", "old_hermit")

	node, err := m.Advance("alice", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.ID != "ruins" {
		t.Errorf("got node %q, want ruins", node.ID)
	}
}

func TestAdvanceLineFollowsNextRegardlessOfIndex(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())
	m.Start("alice", "old_hermit")
	m.Advance("alice", 0) // -> ruins (a NodeLine)

	node, err := m.Advance("alice", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.ID != "greeting" {
		t.Errorf("got node %q, want greeting", node.ID)
	}
}

func TestAdvanceChoiceOutOfRange(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())
	m.Start("alice", "old_hermit")

	if _, err := m.Advance("alice", 5); err == nil {
		t.Error("expected error for an out-of-range choice index")
	}
}

func TestAdvanceToEndClearsSession(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())
	m.Start("alice", "old_hermit")

	node, err := m.Advance("alice", 1) // -> farewell
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Kind != NodeEnd {
		t.Errorf("got kind %q, want NodeEnd", node.Kind)
	}
	if _, ok := m.ActiveSession("alice"); ok {
		t.Error("expected session to be cleared after reaching NodeEnd")
	}
}

func TestAdvanceWithoutActiveSession(t *testing.T) {
	m := NewManager()
	if _, err := m.Advance("bob", 0); err == nil {
		t.Error("expected error advancing a conversation that was never started")
	}
}

func TestEndClearsSession(t *testing.T) {
	m := NewManager()
	m.Register(sampleTree())
	m.Start("alice", "old_hermit")
	m.End("alice")

	if _, ok := m.ActiveSession("alice"); ok {
		t.Error("expected End to clear the active session")
	}
}

func TestHasTree(t *testing.T) {
	m := NewManager()
	if m.HasTree("old_hermit") {
		t.Error("expected HasTree to be false before Register")
	}
	m.Register(sampleTree())
	if !m.HasTree("old_hermit") {
		t.Error("expected HasTree to be true after Register")
	}
}
