package render

import (
	"fmt"
	"strings"

	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/wpml"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// MissionViewer provides human-readable views of a parsed mission
type MissionViewer struct {
	doc *wpml.Document
}

// NewMissionViewer creates a new mission viewer
func NewMissionViewer(doc *wpml.Document) *MissionViewer {
	return &MissionViewer{doc: doc}
}

// ViewTree returns the waypoints and their action groups as a tree
func (mv *MissionViewer) ViewTree() string {
	if len(mv.doc.Waypoints) == 0 {
		return "No waypoints in mission"
	}

	var sb strings.Builder
	groups := 0
	for i, wp := range mv.doc.Waypoints {
		isLast := i == len(mv.doc.Waypoints)-1

		prefix := "├─ "
		connector := "│  "
		if isLast {
			prefix = "└─ "
			connector = "   "
		}
		sb.WriteString(fmt.Sprintf("%swaypoint %d (%.6f, %.6f) %gm\n", prefix, wp.Number, wp.Position.Lat, wp.Position.Lon, wp.Position.Height))

		if len(wp.Groups) == 0 {
			sb.WriteString(connector + "└─ (no action groups)\n")
			continue
		}
		for j, g := range wp.Groups {
			groups++
			groupPrefix := connector + "├─ "
			if j == len(wp.Groups)-1 {
				groupPrefix = connector + "└─ "
			}
			sb.WriteString(fmt.Sprintf("%sgroup %d [%s] %s\n", groupPrefix, g.ID, triggerName(g), actionChain(g)))
		}
	}

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d waypoints, %d action groups\n", len(mv.doc.Waypoints), groups))
	return sb.String()
}

// ViewWaypoint shows one waypoint's action groups in detail
func (mv *MissionViewer) ViewWaypoint(number int) string {
	var wp *wpml.Waypoint
	for _, w := range mv.doc.Waypoints {
		if w.Number == number {
			wp = w
			break
		}
	}
	if wp == nil {
		return fmt.Sprintf("No waypoint with index %d", number)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("waypoint %d (position %d in route)\n", wp.Number, wp.Index))
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Position: %.6f, %.6f at %gm\n", wp.Position.Lat, wp.Position.Lon, wp.Position.Height))
	if wp.Speed > 0 {
		sb.WriteString(fmt.Sprintf("Speed: %g m/s\n", wp.Speed))
	}
	sb.WriteString(fmt.Sprintf("Action groups: %d\n\n", len(wp.Groups)))

	for i, g := range wp.Groups {
		prefix := "├─ "
		connector := "│  "
		if i == len(wp.Groups)-1 {
			prefix = "└─ "
			connector = "   "
		}
		sb.WriteString(fmt.Sprintf("%sgroup %d\n", prefix, g.ID))
		sb.WriteString(fmt.Sprintf("%s  Range: %d-%d\n", connector, g.StartIndex, g.EndIndex))
		if g.Mode != "" {
			sb.WriteString(fmt.Sprintf("%s  Mode: %s\n", connector, g.Mode))
		}
		sb.WriteString(fmt.Sprintf("%s  Trigger: %s\n", connector, triggerName(g)))
		if !g.Recognized() {
			sb.WriteString(fmt.Sprintf("%s  (not managed, passed through)\n", connector))
		}
		for j, a := range g.Actions {
			actionPrefix := "├─ "
			if j == len(g.Actions)-1 {
				actionPrefix = "└─ "
			}
			sb.WriteString(fmt.Sprintf("%s  %s#%d %s\n", connector, actionPrefix, a.ActionID(), model.Describe(a)))
		}
	}
	return sb.String()
}

func triggerName(g *wpml.ActionGroup) string {
	if g.Trigger == "" {
		return "unspecified"
	}
	return g.Trigger
}

func actionChain(g *wpml.ActionGroup) string {
	if len(g.Actions) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(g.Actions))
	for i, a := range g.Actions {
		parts[i] = model.Describe(a)
	}
	return strings.Join(parts, " → ")
}
