package wpml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// groupTemplate is the exact shape the DJI RC accepts for injected groups.
// Every line starts with {{- nl}} so the literal line breaks of the template
// source are trimmed and the document's own line ending is used instead.
const groupTemplate = `
{{- nl}}{{ind 0}}<!-- Action Group for Waypoint: {{.Number}}'s Actions -->
{{- nl}}{{ind 0}}<{{.P}}:actionGroup>
{{- nl}}{{ind 1}}<{{.P}}:actionGroupId>{{.ID}}</{{.P}}:actionGroupId>
{{- nl}}{{ind 1}}<{{.P}}:actionGroupStartIndex>{{.Start}}</{{.P}}:actionGroupStartIndex>
{{- nl}}{{ind 1}}<{{.P}}:actionGroupEndIndex>{{.End}}</{{.P}}:actionGroupEndIndex>
{{- nl}}{{ind 1}}<{{.P}}:actionGroupMode>{{.Mode}}</{{.P}}:actionGroupMode>
{{- nl}}{{ind 1}}<{{.P}}:actionTrigger>
{{- nl}}{{ind 2}}<{{.P}}:actionTriggerType>{{.Trigger}}</{{.P}}:actionTriggerType>
{{- nl}}{{ind 1}}</{{.P}}:actionTrigger>
{{- range .Actions}}
{{- nl}}{{ind 1}}<{{$.P}}:action>
{{- nl}}{{ind 2}}<{{$.P}}:actionId>{{.ID}}</{{$.P}}:actionId>
{{- nl}}{{ind 2}}<{{$.P}}:actionActuatorFunc>{{.Func}}</{{$.P}}:actionActuatorFunc>
{{- nl}}{{ind 2}}<{{$.P}}:actionActuatorFuncParam>
{{- if .Hover}}
{{- nl}}{{ind 3}}<{{$.P}}:hoverTime>{{.Hover}}</{{$.P}}:hoverTime>
{{- else}}
{{- nl}}{{ind 3}}<{{$.P}}:payloadPositionIndex>{{.PayloadPositionIndex}}</{{$.P}}:payloadPositionIndex>
{{- if .FileSuffix}}
{{- nl}}{{ind 3}}<{{$.P}}:fileSuffix>{{.FileSuffix}}</{{$.P}}:fileSuffix>
{{- else}}
{{- nl}}{{ind 3}}<{{$.P}}:fileSuffix/>
{{- end}}
{{- nl}}{{ind 3}}<{{$.P}}:useGlobalPayloadLensIndex>{{.UseGlobalPayloadLensIndex}}</{{$.P}}:useGlobalPayloadLensIndex>
{{- end}}
{{- nl}}{{ind 2}}</{{$.P}}:actionActuatorFuncParam>
{{- nl}}{{ind 1}}</{{$.P}}:action>
{{- end}}
{{- nl}}{{ind 0}}</{{.P}}:actionGroup>`

var baseTemplate = template.Must(template.New("actionGroup").Funcs(template.FuncMap{
	"nl":  func() string { return "\n" },
	"ind": func(int) string { return "" },
}).Parse(groupTemplate))

type actionView struct {
	ID                        int
	Func                      string
	Hover                     string
	PayloadPositionIndex      int
	FileSuffix                string
	UseGlobalPayloadLensIndex int
}

type groupView struct {
	P       string
	Number  int
	ID      int
	Start   int
	End     int
	Mode    string
	Trigger string
	Actions []actionView
}

// layout is the whitespace used around an injected group
type layout struct {
	newline string
	indent  string // indentation of the group's opening tag
	step    string // one nesting level
}

func renderGroup(g *ActionGroup, prefix string, number int, l layout) ([]byte, error) {
	view := groupView{
		P:       prefix,
		Number:  number,
		ID:      g.ID,
		Start:   g.StartIndex,
		End:     g.EndIndex,
		Mode:    escape(g.Mode),
		Trigger: escape(g.Trigger),
	}
	for _, a := range g.Actions {
		switch v := a.(type) {
		case model.Hover:
			view.Actions = append(view.Actions, actionView{
				ID:    v.ID,
				Func:  model.FuncHover,
				Hover: strconv.FormatFloat(v.Seconds, 'f', -1, 64),
			})
		case model.TakePhoto:
			view.Actions = append(view.Actions, actionView{
				ID:                        v.ID,
				Func:                      model.FuncTakePhoto,
				PayloadPositionIndex:      v.PayloadPositionIndex,
				FileSuffix:                escape(v.FileSuffix),
				UseGlobalPayloadLensIndex: v.UseGlobalPayloadLensIndex,
			})
		default:
			return nil, fmt.Errorf("cannot render %s action in a generated group", model.Describe(a))
		}
	}

	tmpl, err := baseTemplate.Clone()
	if err != nil {
		return nil, err
	}
	tmpl.Funcs(template.FuncMap{
		"nl":  func() string { return l.newline },
		"ind": func(depth int) string { return l.indent + strings.Repeat(l.step, depth) },
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render action group: %w", err)
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
