package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/pipeline"
)

// Runner processes a batch of missions, each in its own pipeline.
type Runner struct {
	WorkDir   string
	Stdout    io.Writer
	DryRun    bool
	Overwrite bool
	Options   pipeline.Options
}

// Outcome is the result of one job. Exactly one of Result and Err is set.
type Outcome struct {
	Job    model.Job
	Result *pipeline.Result
	Err    error
}

// NewRunner creates a runner for a batch of missions
func NewRunner(workDir string, stdout io.Writer, dryRun, overwrite bool, opts pipeline.Options) *Runner {
	return &Runner{
		WorkDir:   workDir,
		Stdout:    stdout,
		DryRun:    dryRun,
		Overwrite: overwrite,
		Options:   opts,
	}
}

// Run processes jobs in order. A failing job does not stop the others; the
// returned error summarizes how many failed. Jobs writing the same output
// are rejected before anything runs.
func (r *Runner) Run(jobs []model.Job) ([]Outcome, error) {
	resolved := make([]model.Job, len(jobs))
	for i, job := range jobs {
		resolved[i] = r.resolve(job)
	}
	if err := checkOutputs(resolved); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(resolved))
	failed := 0
	for _, job := range resolved {
		fmt.Fprintf(r.Stdout, "→ Job %s (%s)\n", job.ID, job.Input)
		out := r.runJob(job)
		if out.Err != nil {
			failed++
			fmt.Fprintf(r.Stdout, "  ✗ %s: %v\n", model.KindOf(out.Err), out.Err)
		} else if r.DryRun {
			fmt.Fprintf(r.Stdout, "  - dry run: %d of %d waypoints would change\n", out.Result.Changed, len(out.Result.Report.Results))
		} else {
			fmt.Fprintf(r.Stdout, "  ✓ %s (%d waypoints changed)\n", job.Output, out.Result.Changed)
		}
		outcomes = append(outcomes, out)
	}

	if failed > 0 {
		return outcomes, fmt.Errorf("%d of %d jobs failed", failed, len(resolved))
	}
	return outcomes, nil
}

func (r *Runner) runJob(job model.Job) Outcome {
	opts := r.Options
	opts.Logger = opts.Logger.With().Str("job", job.ID).Logger()

	if r.DryRun {
		archive, err := os.ReadFile(job.Input)
		if err != nil {
			return Outcome{Job: job, Err: fmt.Errorf("failed to read mission: %w", err)}
		}
		res, err := pipeline.Run(archive, opts)
		return Outcome{Job: job, Result: res, Err: err}
	}

	res, err := pipeline.ProcessFile(job.Input, job.Output, r.Overwrite, opts)
	return Outcome{Job: job, Result: res, Err: err}
}

func (r *Runner) resolve(job model.Job) model.Job {
	job.Input = r.resolvePath(job.Input)
	if job.Output == "" {
		job.Output = filepath.Join(filepath.Dir(job.Input), model.DefaultOutputFilename)
	}
	job.Output = r.resolvePath(job.Output)
	if job.ID == "" {
		job.ID = filepath.Base(job.Input)
	}
	return job
}

func (r *Runner) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.WorkDir, path)
}

func checkOutputs(jobs []model.Job) error {
	byOutput := make(map[string]string, len(jobs))
	var errs []error
	for _, job := range jobs {
		key := filepath.Clean(job.Output)
		if other, exists := byOutput[key]; exists {
			errs = append(errs, fmt.Errorf("%w: jobs %s and %s both write %s", model.ErrInvalidConfiguration, other, job.ID, key))
			continue
		}
		byOutput[key] = job.ID
	}
	return errors.Join(errs...)
}
