package model

import "fmt"

// WPML actuator function names understood by the engine.
const (
	FuncHover     = "hover"
	FuncTakePhoto = "takePhoto"

	TriggerReachPoint = "reachPoint"
)

// Action is one operation inside an action group. The set of variants is
// closed: Hover, TakePhoto and Unknown.
type Action interface {
	ActionID() int
	Func() string
	isAction()
}

// Hover keeps the aircraft stationary for Seconds.
type Hover struct {
	ID      int
	Seconds float64
}

func (h Hover) ActionID() int { return h.ID }
func (h Hover) Func() string  { return FuncHover }
func (Hover) isAction()       {}

// TakePhoto captures a still image with the given payload settings.
type TakePhoto struct {
	ID                        int
	PayloadPositionIndex      int
	FileSuffix                string
	UseGlobalPayloadLensIndex int
}

// NewTakePhoto returns a takePhoto action with the default payload settings.
func NewTakePhoto(id int) TakePhoto {
	return TakePhoto{ID: id}
}

func (p TakePhoto) ActionID() int { return p.ID }
func (p TakePhoto) Func() string  { return FuncTakePhoto }
func (TakePhoto) isAction()       {}

// Unknown carries any other actuator function verbatim.
type Unknown struct {
	ID       int
	Function string
	Raw      []byte
}

func (u Unknown) ActionID() int { return u.ID }
func (u Unknown) Func() string  { return u.Function }
func (Unknown) isAction()       {}

// Describe renders an action as shown in reports, e.g. "hover(2s)".
func Describe(a Action) string {
	switch v := a.(type) {
	case Hover:
		return fmt.Sprintf("hover(%gs)", v.Seconds)
	case TakePhoto:
		return FuncTakePhoto
	case Unknown:
		if v.Function == "" {
			return "unknown"
		}
		return v.Function
	}
	return "unknown"
}
