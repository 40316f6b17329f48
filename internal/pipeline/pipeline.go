// Package pipeline runs the extract, parse, inject, serialize, repack and
// validate sequence over one mission archive.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sourceplane/wpmlkit/internal/geo"
	"github.com/sourceplane/wpmlkit/internal/inject"
	"github.com/sourceplane/wpmlkit/internal/kmz"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/validate"
	"github.com/sourceplane/wpmlkit/internal/wpml"
)

// Stage is a state of the processing state machine
type Stage string

const (
	Idle       Stage = "Idle"
	Extracted  Stage = "Extracted"
	Parsed     Stage = "Parsed"
	Injected   Stage = "Injected"
	Serialized Stage = "Serialized"
	Repacked   Stage = "Repacked"
	Validated  Stage = "Validated"
	Done       Stage = "Done"
	Failed     Stage = "Failed"
)

// StageError is a pipeline failure, recording the last stage reached.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures a pipeline run. A zero Logger logs nothing.
type Options struct {
	Policy    model.Policy
	EntryPath string
	Logger    zerolog.Logger
}

// Result is the output of a successful run
type Result struct {
	Archive []byte
	Entry   string
	Changed int
	Report  model.Report
	Summary model.Summary
}

// Pipeline processes one archive. It is not safe for concurrent use; create
// one per mission.
type Pipeline struct {
	opts   Options
	logger zerolog.Logger
	stage  Stage
}

// New creates a pipeline in the Idle stage.
func New(opts Options) *Pipeline {
	if opts.EntryPath == "" {
		opts.EntryPath = model.DefaultMissionEntry
	}
	return &Pipeline{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "pipeline").Logger(),
		stage:  Idle,
	}
}

// Stage returns the current stage; Failed after any error.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Run is shorthand for New(opts).Run(archive).
func Run(archive []byte, opts Options) (*Result, error) {
	return New(opts).Run(archive)
}

// Run transforms archive. On error no output bytes are returned and the
// error is a *StageError wrapping one of the model sentinels.
func (p *Pipeline) Run(archive []byte) (*Result, error) {
	if p.stage != Idle {
		return nil, fmt.Errorf("pipeline already used (stage %s)", p.stage)
	}
	if err := p.opts.Policy.Validate(); err != nil {
		return nil, p.fail(err)
	}

	entry, err := kmz.Locate(archive, p.opts.EntryPath)
	if err != nil {
		return nil, p.fail(err)
	}
	xmlBytes, err := kmz.Extract(archive, entry)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Extracted, zerolog.Dict().Str("entry", entry).Int("bytes", len(xmlBytes)))

	doc, err := wpml.Parse(xmlBytes)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Parsed, zerolog.Dict().Int("waypoints", len(doc.Waypoints)))

	changed, err := inject.NewInjector(p.logger).Apply(doc, p.opts.Policy)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Injected, zerolog.Dict().Int("changed", changed))

	out, err := doc.Serialize()
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Serialized, zerolog.Dict().Int("bytes", len(out)))

	packed, err := kmz.Repack(archive, entry, out)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Repacked, zerolog.Dict().Int("bytes", len(packed)))

	report, final, err := p.selfCheck(packed, entry)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(Validated, zerolog.Dict().Int("waypoints", len(report.Results)))

	res := &Result{
		Archive: packed,
		Entry:   entry,
		Changed: changed,
		Report:  report,
		Summary: Summarize(final, p.opts.Policy),
	}
	p.advance(Done, zerolog.Dict())
	return res, nil
}

// selfCheck reads the mission back out of the repacked archive and
// validates it. Any failure here is an engine defect.
func (p *Pipeline) selfCheck(packed []byte, entry string) (model.Report, *wpml.Document, error) {
	data, err := kmz.Extract(packed, entry)
	if err != nil {
		return model.Report{}, nil, fmt.Errorf("%w: repacked archive unreadable: %v", model.ErrInternalValidation, err)
	}
	doc, err := wpml.Parse(data)
	if err != nil {
		return model.Report{}, nil, fmt.Errorf("%w: serialized mission does not parse: %v", model.ErrInternalValidation, err)
	}
	report := validate.Validate(doc, p.opts.Policy)
	if failures := report.Failures(); len(failures) > 0 {
		first := failures[0]
		return report, nil, fmt.Errorf("%w: %d waypoints unsatisfied after injection, first %d: %s",
			model.ErrInternalValidation, len(failures), first.Index, first.Reason)
	}
	return report, doc, nil
}

func (p *Pipeline) advance(next Stage, fields *zerolog.Event) {
	p.logger.Debug().Str("from", string(p.stage)).Str("stage", string(next)).Dict("details", fields).Msg("stage complete")
	p.stage = next
}

func (p *Pipeline) fail(err error) error {
	last := p.stage
	p.stage = Failed
	p.logger.Error().Err(err).Str("stage", string(last)).Str("kind", model.KindOf(err)).Msg("pipeline failed")
	return &StageError{Stage: last, Err: err}
}

// Summarize computes display figures for a parsed mission under policy p.
func Summarize(doc *wpml.Document, p model.Policy) model.Summary {
	positions := make([]model.Position, len(doc.Waypoints))
	groups := 0
	var speedSum float64
	for i, wp := range doc.Waypoints {
		positions[i] = wp.Position
		groups += len(wp.Groups)
		speedSum += wp.Speed
	}

	speed := doc.AutoFlightSpeed
	if speed <= 0 && len(doc.Waypoints) > 0 {
		speed = speedSum / float64(len(doc.Waypoints))
	}
	hover := 0
	if p.Kind == model.HoverThenPhoto {
		hover = p.HoverSeconds
	}
	return geo.Summarize(positions, groups, speed, hover)
}
