// Package validate inspects mission documents without modifying them.
package validate

import (
	"fmt"
	"strings"

	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/wpml"
)

// Validate reports, per waypoint, whether exactly one action group
// implements p.
func Validate(doc *wpml.Document, p model.Policy) model.Report {
	report := model.Report{
		Policy:  p.String(),
		Results: make([]model.WaypointResult, 0, len(doc.Waypoints)),
	}
	for _, wp := range doc.Waypoints {
		report.Results = append(report.Results, validateWaypoint(wp, p))
	}
	return report
}

func validateWaypoint(wp *wpml.Waypoint, p model.Policy) model.WaypointResult {
	res := model.WaypointResult{Index: wp.Index, Number: wp.Number}
	var found []string
	for _, g := range wp.Groups {
		if g.Implements(p) {
			res.Matching++
		}
		found = append(found, g.Describe())
	}

	switch {
	case res.Matching == 1:
		res.Satisfied = true
		res.Reason = fmt.Sprintf("%s present", p)
	case res.Matching > 1:
		res.Reason = fmt.Sprintf("%d action groups implement %s", res.Matching, p)
	case len(found) == 0:
		res.Reason = "no action groups"
	default:
		res.Reason = fmt.Sprintf("no action group implements %s (found %s)", p, strings.Join(found, ", "))
	}
	return res
}

// Check runs the structural compatibility checks of the standalone mission
// validator.
func Check(doc *wpml.Document) model.Compatibility {
	c := model.Compatibility{Waypoints: len(doc.Waypoints)}
	if len(doc.Waypoints) == 0 {
		c.Errors = append(c.Errors, "mission has no waypoints")
	}

	for _, wp := range doc.Waypoints {
		if !wp.HasElement("useStraightLine") {
			c.Warnings = append(c.Warnings, fmt.Sprintf("waypoint %d: no useStraightLine element", wp.Number))
		}
		for _, g := range wp.Groups {
			c.Actions += len(g.Actions)
			seen := make(map[int]bool, len(g.Actions))
			for _, a := range g.Actions {
				id := a.ActionID()
				if id < 0 {
					c.Warnings = append(c.Warnings, fmt.Sprintf("waypoint %d group %d: %s action has no valid actionId", wp.Number, g.ID, a.Func()))
					continue
				}
				if seen[id] {
					c.Warnings = append(c.Warnings, fmt.Sprintf("waypoint %d group %d: duplicate actionId %d", wp.Number, g.ID, id))
				}
				seen[id] = true
			}
		}
	}
	if c.Actions > 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("mission already contains %d actions", c.Actions))
	}
	return c
}
