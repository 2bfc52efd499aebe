package applog

import "testing"

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	Init(false, "not-a-real-level")
	// Init never errors; an invalid level silently falls back to info
	// rather than panicking the whole server over a config typo.
	Info().Msg("logger initialized")
}

func TestWithHelpersAttachContextWithoutPanicking(t *testing.T) {
	Init(false, "debug")

	WithPlayer("hero").Info().Msg("player scoped")
	WithRoom("town_square").Info().Msg("room scoped")
	WithSession("sess-1").Info().Msg("session scoped")
	WithCombat("inst-1").Info().Msg("combat scoped")
}
