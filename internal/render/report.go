package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/sourceplane/wpmlkit/internal/model"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// MissionReport is the machine-readable result of processing or checking
// one mission
type MissionReport struct {
	APIVersion    string               `yaml:"apiVersion" json:"apiVersion"`
	Kind          string               `yaml:"kind" json:"kind"`
	Metadata      model.Metadata       `yaml:"metadata" json:"metadata"`
	Input         string               `yaml:"input" json:"input"`
	Output        string               `yaml:"output,omitempty" json:"output,omitempty"`
	Entry         string               `yaml:"entry" json:"entry"`
	Changed       int                  `yaml:"changed" json:"changed"`
	Validation    *model.Report        `yaml:"validation,omitempty" json:"validation,omitempty"`
	Compatibility *model.Compatibility `yaml:"compatibility,omitempty" json:"compatibility,omitempty"`
	Summary       *model.Summary       `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// Renderer formats reports for terminals and files
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// NewMissionReport creates a report document for the named mission
func (r *Renderer) NewMissionReport(name, input string) *MissionReport {
	return &MissionReport{
		APIVersion: model.ConfigAPIVersion,
		Kind:       "MissionReport",
		Metadata:   model.Metadata{Name: name},
		Input:      input,
	}
}

// RenderJSON renders a report as JSON
func (r *Renderer) RenderJSON(rep *MissionReport) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// RenderYAML renders a report as YAML
func (r *Renderer) RenderYAML(rep *MissionReport) ([]byte, error) {
	return yaml.Marshal(rep)
}

// Render formats a report as text, json or yaml
func (r *Renderer) Render(rep *MissionReport, format string) ([]byte, error) {
	switch format {
	case "json":
		return r.RenderJSON(rep)
	case "yaml", "yml":
		return r.RenderYAML(rep)
	case "text", "":
		return []byte(r.Text(rep)), nil
	}
	return nil, fmt.Errorf("%w: unknown output format %q (want text, json or yaml)", model.ErrInvalidConfiguration, format)
}

// WriteReport writes a report to a file (JSON or YAML based on extension)
func (r *Renderer) WriteReport(rep *MissionReport, path string) error {
	var data []byte
	var err error

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(rep)
	default:
		data, err = r.RenderJSON(rep)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// Text renders every populated section of a report for a terminal
func (r *Renderer) Text(rep *MissionReport) string {
	var sb strings.Builder
	if rep.Validation != nil {
		sb.WriteString(r.ValidationText(*rep.Validation))
	}
	if rep.Compatibility != nil {
		sb.WriteString(r.CompatibilityText(*rep.Compatibility))
	}
	if rep.Summary != nil {
		sb.WriteString(r.SummaryText(*rep.Summary))
	}
	return sb.String()
}

// ValidationText lists the per-waypoint verdicts
func (r *Renderer) ValidationText(rep model.Report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Validation: "+rep.Policy) + "\n")
	if len(rep.Results) == 0 {
		sb.WriteString(dimStyle.Render("  (no waypoints)") + "\n")
	}
	for _, res := range rep.Results {
		mark := okStyle.Render("✓")
		if !res.Satisfied {
			mark = failStyle.Render("✗")
		}
		sb.WriteString(fmt.Sprintf("  %s waypoint %d  %s\n", mark, res.Index, dimStyle.Render(res.Reason)))
	}

	failed := len(rep.Failures())
	if failed == 0 {
		sb.WriteString(okStyle.Render(fmt.Sprintf("%d/%d waypoints satisfied", len(rep.Results), len(rep.Results))) + "\n")
	} else {
		sb.WriteString(failStyle.Render(fmt.Sprintf("%d/%d waypoints satisfied", len(rep.Results)-failed, len(rep.Results))) + "\n")
	}
	return sb.String()
}

// CompatibilityText lists structural errors and warnings
func (r *Renderer) CompatibilityText(c model.Compatibility) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Compatibility") + "\n")
	sb.WriteString(fmt.Sprintf("  waypoints: %d, actions: %d\n", c.Waypoints, c.Actions))
	for _, e := range c.Errors {
		sb.WriteString("  " + failStyle.Render("error: "+e) + "\n")
	}
	for _, w := range c.Warnings {
		sb.WriteString("  " + warnStyle.Render("warning: "+w) + "\n")
	}
	if c.Valid() {
		sb.WriteString(okStyle.Render("mission is compatible") + "\n")
	}
	return sb.String()
}

// SummaryText shows the mission summary
func (r *Renderer) SummaryText(s model.Summary) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Mission summary") + "\n")
	sb.WriteString(fmt.Sprintf("  Waypoints:      %d\n", s.Waypoints))
	sb.WriteString(fmt.Sprintf("  Action groups:  %d\n", s.ActionGroups))
	sb.WriteString(fmt.Sprintf("  Route length:   %.0f m\n", s.RouteLengthM))
	if s.SpeedMS > 0 {
		sb.WriteString(fmt.Sprintf("  Speed:          %.1f m/s\n", s.SpeedMS))
	}
	if s.HoverSeconds > 0 {
		sb.WriteString(fmt.Sprintf("  Hover:          %ds per waypoint\n", s.HoverSeconds))
	}
	if s.EstimatedSeconds > 0 {
		sb.WriteString(fmt.Sprintf("  Est. duration:  %s\n", formatDuration(s.EstimatedSeconds)))
	}
	return sb.String()
}

func formatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}
