// Package command implements the command dispatch registry: parsing
// a player's input line into a verb and argument, resolving the verb
// to a handler by exact name, alias, or unique prefix, and running it
// against a Context. The teacher dispatches commands through one
// giant switch in main.go; Holdfast generalizes that into a registry
// so new verbs can be added without touching a central switch.
package command

import (
	"sort"
	"strings"
)

// Result is the outcome of running a command, returned to the caller
// (the session loop) for rendering to the client.
type Result struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	UIUpdate string      `json:"ui_update,omitempty"`
}

func Ok(message string) Result                        { return Result{Success: true, Message: message} }
func OkData(message string, data interface{}) Result   { return Result{Success: true, Message: message, Data: data} }
func OkUI(message, uiUpdate string) Result             { return Result{Success: true, Message: message, UIUpdate: uiUpdate} }
func Fail(message string) Result                       { return Result{Success: false, Message: message} }

// Handler executes one command. arg is the raw, space-joined text
// after the verb (original case preserved, since arguments like
// usernames or chat text are case-sensitive even though the verb
// lookup is not).
type Handler func(ctx *Context, arg string) Result

// Spec describes one registrable command.
type Spec struct {
	Name        string
	Aliases     []string
	AdminOnly   bool
	Description string
	Handler     Handler
}

// Registry resolves verbs to handlers by exact name, then alias, then
// unique prefix.
type Registry struct {
	byName map[string]*Spec
	order  []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Spec)}
}

// Register adds spec under its name and every alias. Panics on a
// duplicate name, which indicates a programming error at startup
// rather than a runtime condition to recover from.
func (r *Registry) Register(spec Spec) {
	key := strings.ToLower(spec.Name)
	if _, exists := r.byName[key]; exists {
		panic("command: duplicate registration for " + spec.Name)
	}
	r.byName[key] = &spec
	r.order = append(r.order, key)

	for _, alias := range spec.Aliases {
		aliasKey := strings.ToLower(alias)
		if _, exists := r.byName[aliasKey]; !exists {
			r.byName[aliasKey] = &spec
		}
	}
}

// ErrAmbiguous-style resolution outcomes.
type ResolveStatus int

const (
	ResolveOK ResolveStatus = iota
	ResolveNotFound
	ResolveAmbiguous
)

// Resolve looks up verb by exact name, then alias (both covered by a
// single map lookup since aliases are registered into the same map),
// then unique prefix match against registered command names.
func (r *Registry) Resolve(verb string) (*Spec, ResolveStatus, []string) {
	verb = strings.ToLower(verb)

	if spec, ok := r.byName[verb]; ok {
		return spec, ResolveOK, nil
	}

	var matches []*Spec
	var matchNames []string
	seen := make(map[*Spec]bool)
	for _, name := range r.order {
		if strings.HasPrefix(name, verb) {
			spec := r.byName[name]
			if !seen[spec] {
				seen[spec] = true
				matches = append(matches, spec)
				matchNames = append(matchNames, spec.Name)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, ResolveNotFound, nil
	case 1:
		return matches[0], ResolveOK, nil
	default:
		sort.Strings(matchNames)
		return nil, ResolveAmbiguous, matchNames
	}
}

// Parse splits a raw input line into a lowercase verb and the
// original-case remainder.
func Parse(input string) (verb, arg string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ""
	}
	fields := strings.Fields(input)
	verb = strings.ToLower(fields[0])
	if idx := strings.IndexAny(input, " \t"); idx != -1 {
		arg = strings.TrimSpace(input[idx+1:])
	}
	return verb, arg
}

// Dispatch resolves and runs verb against ctx, handling not-found,
// ambiguous, and admin-authorization failures uniformly so individual
// handlers never have to.
func (r *Registry) Dispatch(ctx *Context, verb, arg string) Result {
	spec, status, candidates := r.Resolve(verb)
	switch status {
	case ResolveNotFound:
		return Fail("Unknown command: " + verb)
	case ResolveAmbiguous:
		return Fail("Ambiguous command \"" + verb + "\": could be " + strings.Join(candidates, ", "))
	}

	if spec.AdminOnly && !ctx.IsAdmin {
		return Fail("You don't have permission to do that.")
	}

	return spec.Handler(ctx, arg)
}
