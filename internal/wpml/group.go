package wpml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/sourceplane/wpmlkit/internal/model"
)

// ActionGroup is one wpml:actionGroup attached to a waypoint. Groups decoded
// from the document keep a reference to their source bytes; groups built by
// NewActionGroup are rendered from the group template on serialization.
type ActionGroup struct {
	ID         int
	StartIndex int
	EndIndex   int
	Mode       string
	Trigger    string
	Actions    []model.Action

	src *node
	cut int // start of the region removed with this group
	at  int // insertion offset, generated groups only
}

// NewActionGroup builds a reachPoint group for the waypoint numbered number
// carrying the policy's action sequence.
func NewActionGroup(id, number int, p model.Policy) *ActionGroup {
	return &ActionGroup{
		ID:         id,
		StartIndex: number,
		EndIndex:   number,
		Mode:       "sequence",
		Trigger:    model.TriggerReachPoint,
		Actions:    p.Actions(),
	}
}

// Generated reports whether the group was created in memory rather than
// decoded from the document.
func (g *ActionGroup) Generated() bool {
	return g.src == nil
}

// Recognized reports whether the group belongs to the hover/photo domain:
// triggered on reaching the point and made only of hover and takePhoto
// actions. Other groups are never modified.
func (g *ActionGroup) Recognized() bool {
	if g.Trigger != "" && g.Trigger != model.TriggerReachPoint {
		return false
	}
	if len(g.Actions) == 0 {
		return false
	}
	for _, a := range g.Actions {
		switch a.(type) {
		case model.Hover, model.TakePhoto:
		default:
			return false
		}
	}
	return true
}

// Implements is the equality rule shared by the injector and the validator:
// reachPoint (or unspecified) trigger, the policy's action kinds in order,
// and an equal hover duration. Ids, indexes and photo parameters are not
// compared.
func (g *ActionGroup) Implements(p model.Policy) bool {
	if g.Trigger != "" && g.Trigger != model.TriggerReachPoint {
		return false
	}
	want := p.Actions()
	if len(want) == 0 || len(g.Actions) != len(want) {
		return false
	}
	for i, a := range g.Actions {
		switch w := want[i].(type) {
		case model.Hover:
			h, ok := a.(model.Hover)
			if !ok || h.Seconds != w.Seconds {
				return false
			}
		case model.TakePhoto:
			if _, ok := a.(model.TakePhoto); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Describe lists the group's actions, e.g. "[hover(2s) takePhoto]".
func (g *ActionGroup) Describe() string {
	parts := make([]string, len(g.Actions))
	for i, a := range g.Actions {
		parts[i] = model.Describe(a)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func decodeElement(raw []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty element")
	}
	return root, nil
}

func decodeGroup(raw []byte) (*ActionGroup, error) {
	root, err := decodeElement(raw)
	if err != nil {
		return nil, err
	}
	g := &ActionGroup{
		ID:         intText(root.SelectElement("actionGroupId"), -1),
		StartIndex: intText(root.SelectElement("actionGroupStartIndex"), -1),
		EndIndex:   intText(root.SelectElement("actionGroupEndIndex"), -1),
		Mode:       text(root.SelectElement("actionGroupMode")),
		Trigger:    text(root.FindElement("actionTrigger/actionTriggerType")),
	}
	for _, a := range root.SelectElements("action") {
		g.Actions = append(g.Actions, decodeAction(a))
	}
	return g, nil
}

func decodeAction(el *etree.Element) model.Action {
	id := intText(el.SelectElement("actionId"), -1)
	fn := text(el.SelectElement("actionActuatorFunc"))
	params := el.SelectElement("actionActuatorFuncParam")

	switch fn {
	case model.FuncHover:
		if params != nil {
			secs, err := strconv.ParseFloat(text(params.SelectElement("hoverTime")), 64)
			if err == nil {
				return model.Hover{ID: id, Seconds: secs}
			}
		}
	case model.FuncTakePhoto:
		photo := model.NewTakePhoto(id)
		if params != nil {
			photo.PayloadPositionIndex = intText(params.SelectElement("payloadPositionIndex"), 0)
			photo.FileSuffix = text(params.SelectElement("fileSuffix"))
			photo.UseGlobalPayloadLensIndex = intText(params.SelectElement("useGlobalPayloadLensIndex"), 0)
		}
		return photo
	}

	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	raw, _ := doc.WriteToBytes()
	return model.Unknown{ID: id, Function: fn, Raw: raw}
}

func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func intText(el *etree.Element, fallback int) int {
	v, err := strconv.Atoi(text(el))
	if err != nil {
		return fallback
	}
	return v
}

func floatText(el *etree.Element) float64 {
	v, err := strconv.ParseFloat(text(el), 64)
	if err != nil {
		return 0
	}
	return v
}
