package model

import "strings"

// Direction is a closed enumeration of the directions a room exit can
// point. Parsers accept the short forms in shortDirections.
type Direction string

const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Up        Direction = "up"
	Down      Direction = "down"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
)

var allDirections = map[Direction]bool{
	North: true, South: true, East: true, West: true,
	Up: true, Down: true,
	Northeast: true, Northwest: true, Southeast: true, Southwest: true,
}

var shortDirections = map[string]Direction{
	"n": North, "s": South, "e": East, "w": West,
	"u": Up, "d": Down,
	"ne": Northeast, "nw": Northwest, "se": Southeast, "sw": Southwest,
}

// ParseDirection resolves a long or short-form direction string. The
// second return value is false for anything outside the closed set.
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := shortDirections[s]; ok {
		return d, true
	}
	d := Direction(s)
	if allDirections[d] {
		return d, true
	}
	return "", false
}

// Valid reports whether d is a member of the closed direction set.
func (d Direction) Valid() bool {
	return allDirections[d]
}

// Opposite returns the reciprocal direction, used when digging new
// two-way exits; one-way exits are legal and this is never required.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	default:
		return ""
	}
}
