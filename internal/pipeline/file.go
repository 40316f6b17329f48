package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// ProcessFile runs the pipeline on the archive at input and writes the
// result to output. Nothing is written unless every stage succeeds, and an
// existing output (including input itself) is only replaced when overwrite
// is set.
func ProcessFile(input, output string, overwrite bool, opts Options) (*Result, error) {
	if err := checkOutput(output, overwrite); err != nil {
		return nil, err
	}

	archive, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission: %w", err)
	}

	res, err := Run(archive, opts)
	if err != nil {
		return nil, err
	}

	if err := WriteAtomic(output, res.Archive); err != nil {
		return nil, err
	}
	return res, nil
}

func checkOutput(output string, overwrite bool) error {
	if filepath.Ext(output) != ".kmz" {
		return fmt.Errorf("%w: output file %q must have a .kmz extension", model.ErrInvalidConfiguration, output)
	}
	info, err := os.Stat(output)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check output: %w", err)
	case info.IsDir():
		return fmt.Errorf("%w: output %s is a directory", model.ErrInvalidConfiguration, output)
	case !overwrite:
		return fmt.Errorf("%w: output %s already exists (use --force to overwrite)", model.ErrInvalidConfiguration, output)
	}
	return nil
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial archive.
func WriteAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wpmlkit-*.kmz")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
