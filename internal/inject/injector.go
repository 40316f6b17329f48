// Package inject applies a per-waypoint action policy to a mission document.
package inject

import (
	"github.com/rs/zerolog"

	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/wpml"
)

// Injector applies an action policy to every waypoint of a document
type Injector struct {
	logger zerolog.Logger
}

// NewInjector creates an injector that logs decisions to logger.
func NewInjector(logger zerolog.Logger) *Injector {
	return &Injector{logger: logger}
}

// Apply makes every waypoint carry exactly one action group implementing p.
// The policy is checked before any waypoint is touched. It returns the
// number of waypoints that changed; a second Apply with the same policy
// returns 0.
func (i *Injector) Apply(doc *wpml.Document, p model.Policy) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	changed := 0
	for _, wp := range doc.Waypoints {
		if i.applyWaypoint(wp, p) {
			changed++
		}
	}
	i.logger.Debug().
		Str("policy", p.String()).
		Int("waypoints", len(doc.Waypoints)).
		Int("changed", changed).
		Msg("policy applied")
	return changed, nil
}

func (i *Injector) applyWaypoint(wp *wpml.Waypoint, p model.Policy) bool {
	var (
		match *wpml.ActionGroup
		stale []*wpml.ActionGroup
	)
	for _, g := range wp.Groups {
		switch {
		case match == nil && g.Implements(p):
			match = g
		case g.Recognized():
			stale = append(stale, g)
		}
	}

	if match != nil {
		if len(stale) == 0 {
			return false
		}
		i.logger.Debug().Int("waypoint", wp.Index).Int("removed", len(stale)).Msg("dropping duplicate action groups")
		wp.Replace(stale, nil)
		return true
	}

	id := groupID(wp, stale)
	i.logger.Debug().Int("waypoint", wp.Index).Int("groupId", id).Int("replaced", len(stale)).Msg("inserting action group")
	wp.Replace(stale, wpml.NewActionGroup(id, wp.Number, p))
	return true
}

// groupID is the waypoint number unless a group that stays already uses it,
// in which case the next free id above it.
func groupID(wp *wpml.Waypoint, stale []*wpml.ActionGroup) int {
	used := make(map[int]bool)
	for _, g := range wp.Groups {
		if !isStale(g, stale) {
			used[g.ID] = true
		}
	}

	id := wp.Number
	for used[id] {
		id++
	}
	return id
}

func isStale(g *wpml.ActionGroup, stale []*wpml.ActionGroup) bool {
	for _, s := range stale {
		if s == g {
			return true
		}
	}
	return false
}

// ApplyPolicy is a convenience for a one-off Apply without logging.
func ApplyPolicy(doc *wpml.Document, p model.Policy) (int, error) {
	return NewInjector(zerolog.Nop()).Apply(doc, p)
}
