package model

import "fmt"

// Hover duration bounds in seconds, inclusive.
const (
	MinHoverSeconds = 1
	MaxHoverSeconds = 60
)

// PolicyKind selects the action sequence injected at every waypoint
type PolicyKind string

const (
	PhotoOnly      PolicyKind = "photo_only"
	HoverThenPhoto PolicyKind = "hover_then_photo"
)

// Policy is the per-waypoint action policy applied by the injector
type Policy struct {
	Kind         PolicyKind `yaml:"policy" json:"policy"`
	HoverSeconds int        `yaml:"hoverSeconds,omitempty" json:"hoverSeconds,omitempty"`
}

// NewPhotoOnly returns the takePhoto-only policy.
func NewPhotoOnly() Policy {
	return Policy{Kind: PhotoOnly}
}

// NewHoverThenPhoto returns a hover-then-photo policy. The duration is not
// checked here; call Validate.
func NewHoverThenPhoto(seconds int) Policy {
	return Policy{Kind: HoverThenPhoto, HoverSeconds: seconds}
}

// ParsePolicy builds a policy from its configuration name and hover duration.
func ParsePolicy(kind string, hoverSeconds int) (Policy, error) {
	var p Policy
	switch PolicyKind(kind) {
	case PhotoOnly:
		p = NewPhotoOnly()
	case HoverThenPhoto:
		p = NewHoverThenPhoto(hoverSeconds)
	default:
		return Policy{}, fmt.Errorf("%w: unknown policy %q (want %s or %s)", ErrInvalidConfiguration, kind, PhotoOnly, HoverThenPhoto)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch p.Kind {
	case PhotoOnly:
		return nil
	case HoverThenPhoto:
		if p.HoverSeconds < MinHoverSeconds || p.HoverSeconds > MaxHoverSeconds {
			return fmt.Errorf("%w: hover duration %ds outside %d-%d", ErrInvalidConfiguration, p.HoverSeconds, MinHoverSeconds, MaxHoverSeconds)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfiguration, p.Kind)
	}
}

// Actions returns the ordered action sequence a conforming group carries.
// Action ids are positional.
func (p Policy) Actions() []Action {
	switch p.Kind {
	case HoverThenPhoto:
		return []Action{
			Hover{ID: 0, Seconds: float64(p.HoverSeconds)},
			NewTakePhoto(1),
		}
	case PhotoOnly:
		return []Action{NewTakePhoto(0)}
	}
	return nil
}

func (p Policy) String() string {
	if p.Kind == HoverThenPhoto {
		return fmt.Sprintf("%s(%ds)", p.Kind, p.HoverSeconds)
	}
	return string(p.Kind)
}
