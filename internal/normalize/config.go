package normalize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// Overrides carries explicitly set CLI flags. Nil fields leave the config
// value in place.
type Overrides struct {
	Policy         *string
	HoverSeconds   *int
	MissionEntry   *string
	OutputFilename *string
	OutputDir      *string
	Overwrite      *bool
}

// NormalizeConfig applies overrides and defaults to cfg and checks the
// result. cfg may be nil when no config file is used.
func NormalizeConfig(cfg *model.Config, o Overrides) (*model.Settings, error) {
	spec := model.ConfigSpec{}
	name := "default"
	if cfg != nil {
		spec = cfg.Spec
		if cfg.Metadata.Name != "" {
			name = cfg.Metadata.Name
		}
	}

	// Apply overrides
	setString(&spec.Policy, o.Policy)
	setString(&spec.MissionEntry, o.MissionEntry)
	setString(&spec.Output.Filename, o.OutputFilename)
	setString(&spec.Output.Dir, o.OutputDir)
	if o.HoverSeconds != nil {
		spec.HoverSeconds = *o.HoverSeconds
	}
	if o.Overwrite != nil {
		spec.Output.Overwrite = *o.Overwrite
	}

	// Defaults
	if spec.Policy == "" {
		spec.Policy = string(model.HoverThenPhoto)
	}
	if spec.HoverSeconds == 0 && o.HoverSeconds == nil {
		spec.HoverSeconds = model.DefaultHoverSeconds
	}
	if spec.MissionEntry == "" {
		spec.MissionEntry = model.DefaultMissionEntry
	}
	if spec.Output.Filename == "" {
		spec.Output.Filename = model.DefaultOutputFilename
	}

	policy, err := model.ParsePolicy(spec.Policy, spec.HoverSeconds)
	if err != nil {
		return nil, err
	}
	if err := checkFilename(spec.Output.Filename); err != nil {
		return nil, err
	}

	return &model.Settings{
		Name:           name,
		Policy:         policy,
		MissionEntry:   strings.TrimPrefix(filepath.ToSlash(spec.MissionEntry), "/"),
		OutputFilename: spec.Output.Filename,
		OutputDir:      spec.Output.Dir,
		Overwrite:      spec.Output.Overwrite,
	}, nil
}

// OutputPath is where the processed copy of input is written.
func OutputPath(s *model.Settings, input string) string {
	dir := s.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, s.OutputFilename)
}

func checkFilename(name string) error {
	if !strings.HasSuffix(name, ".kmz") || name == ".kmz" {
		return fmt.Errorf("%w: output filename %q must end in .kmz", model.ErrInvalidConfiguration, name)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%w: output filename %q must not contain a directory; use the output dir", model.ErrInvalidConfiguration, name)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
