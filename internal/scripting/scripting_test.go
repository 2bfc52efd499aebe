package scripting

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, templateID, body string) {
	t.Helper()
	path := filepath.Join(dir, templateID+".lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing test script: %v", err)
	}
}

func TestPickRoamDirectionUsesScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "goblin", `
function roam_direction(exits)
  return exits[#exits]
end
`)
	e := New(dir)
	defer e.Close()

	dir2, ok := e.PickRoamDirection("goblin", []string{"north", "south", "east"})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if dir2 != "east" {
		t.Errorf("got %q, want %q", dir2, "east")
	}
}

func TestPickRoamDirectionFallsBackWhenNoScript(t *testing.T) {
	e := New(t.TempDir())
	defer e.Close()

	_, ok := e.PickRoamDirection("rat", []string{"north"})
	if ok {
		t.Error("expected ok=false for an unscripted template")
	}
}

func TestPickRoamDirectionFallsBackOnInvalidReturn(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slime", `
function roam_direction(exits)
  return "nowhere"
end
`)
	e := New(dir)
	defer e.Close()

	_, ok := e.PickRoamDirection("slime", []string{"north", "south"})
	if ok {
		t.Error("expected ok=false when script returns an exit that does not exist")
	}
}

func TestPickRoamDirectionFallsBackOnLuaError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken", `
function roam_direction(exits)
  error("boom")
end
`)
	e := New(dir)
	defer e.Close()

	_, ok := e.PickRoamDirection("broken", []string{"north"})
	if ok {
		t.Error("expected ok=false when the script errors")
	}
}

func TestShouldAggroUsesScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "direwolf", `
function should_aggro(ctx)
  return ctx.player_level < ctx.monster_level and not ctx.player_hidden
end
`)
	e := New(dir)
	defer e.Close()

	aggro, ok := e.ShouldAggro("direwolf", AggroContext{MonsterLevel: 10, PlayerLevel: 3, PlayerHidden: false})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !aggro {
		t.Error("expected aggro=true for a low-level, visible player")
	}

	aggro, ok = e.ShouldAggro("direwolf", AggroContext{MonsterLevel: 10, PlayerLevel: 3, PlayerHidden: true})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if aggro {
		t.Error("expected aggro=false for a hidden player")
	}
}

func TestShouldAggroFallsBackWhenNoScript(t *testing.T) {
	e := New(t.TempDir())
	defer e.Close()

	_, ok := e.ShouldAggro("rat", AggroContext{MonsterLevel: 1, PlayerLevel: 5})
	if ok {
		t.Error("expected ok=false for an unscripted template")
	}
}

func TestEnsureLoadedCachesMissingScript(t *testing.T) {
	e := New(t.TempDir())
	defer e.Close()

	if e.ensureLoaded("ghost") {
		t.Fatal("expected ensureLoaded to report false for a missing script")
	}
	// second call should hit the cached false result rather than re-stat
	if e.ensureLoaded("ghost") {
		t.Fatal("expected cached false result on second call")
	}
}
