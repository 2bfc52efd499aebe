package command

import "testing"

func TestParseSplitsVerbAndArg(t *testing.T) {
	verb, arg := Parse("  Say Hello there  ")
	if verb != "say" {
		t.Fatalf("verb = %q, want say", verb)
	}
	if arg != "Hello there" {
		t.Fatalf("arg = %q, want %q", arg, "Hello there")
	}
}

func TestParseEmptyInput(t *testing.T) {
	verb, arg := Parse("   ")
	if verb != "" || arg != "" {
		t.Fatalf("Parse(blank) = (%q, %q), want (\"\", \"\")", verb, arg)
	}
}

func TestRegistryResolveExactNameAndAlias(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "look", Aliases: []string{"l"}, Handler: func(ctx *Context, arg string) Result { return Ok("") }})

	if _, status, _ := r.Resolve("look"); status != ResolveOK {
		t.Fatalf("exact name resolve status = %v, want ResolveOK", status)
	}
	if _, status, _ := r.Resolve("l"); status != ResolveOK {
		t.Fatalf("alias resolve status = %v, want ResolveOK", status)
	}
}

func TestRegistryResolveUniquePrefix(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "inventory", Handler: func(ctx *Context, arg string) Result { return Ok("") }})

	spec, status, _ := r.Resolve("inv")
	if status != ResolveOK || spec.Name != "inventory" {
		t.Fatalf("prefix resolve = (%v, %v), want ResolveOK/inventory", spec, status)
	}
}

func TestRegistryResolveAmbiguousPrefix(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "go", Handler: func(ctx *Context, arg string) Result { return Ok("") }})
	r.Register(Spec{Name: "gossip", Handler: func(ctx *Context, arg string) Result { return Ok("") }})

	_, status, candidates := r.Resolve("go")
	if status != ResolveOK {
		t.Fatalf("exact match should win over ambiguity, got status %v", status)
	}
	if candidates != nil {
		t.Fatalf("expected no candidates for an exact match, got %v", candidates)
	}

	_, status, candidates = r.Resolve("g")
	if status != ResolveAmbiguous {
		t.Fatalf("status = %v, want ResolveAmbiguous", status)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 ambiguous candidates, got %v", candidates)
	}
}

func TestRegistryResolveNotFound(t *testing.T) {
	r := NewRegistry()
	if _, status, _ := r.Resolve("frobnicate"); status != ResolveNotFound {
		t.Fatalf("status = %v, want ResolveNotFound", status)
	}
}

func TestRegistryRegisterPanicsOnDuplicateName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Register to panic on a duplicate command name")
		}
	}()
	r := NewRegistry()
	r.Register(Spec{Name: "look", Handler: func(ctx *Context, arg string) Result { return Ok("") }})
	r.Register(Spec{Name: "look", Handler: func(ctx *Context, arg string) Result { return Ok("") }})
}

func TestDispatchRejectsAdminOnlyForNonAdmin(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "shutdown", AdminOnly: true, Handler: func(ctx *Context, arg string) Result { return Ok("done") }})

	ctx := &Context{IsAdmin: false}
	result := r.Dispatch(ctx, "shutdown", "")
	if result.Success {
		t.Fatal("expected admin-only command to be rejected for a non-admin context")
	}
}

func TestDispatchAllowsAdminOnlyForAdmin(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "shutdown", AdminOnly: true, Handler: func(ctx *Context, arg string) Result { return Ok("done") }})

	ctx := &Context{IsAdmin: true}
	result := r.Dispatch(ctx, "shutdown", "")
	if !result.Success {
		t.Fatal("expected admin-only command to succeed for an admin context")
	}
}
