package pipeline

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sourceplane/wpmlkit/internal/kmz"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/wpml"
	"github.com/sourceplane/wpmlkit/internal/wpml/wpmltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func rawEntry(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.OpenRaw()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return data
		}
	}
	t.Fatalf("entry %s not found", name)
	return nil
}

func TestRun(t *testing.T) {
	var logs bytes.Buffer
	archive := wpmltest.Archive(t, wpmltest.Route(3))
	p := New(Options{
		Policy: model.NewHoverThenPhoto(2),
		Logger: zerolog.New(&logs).Level(zerolog.DebugLevel),
	})

	res, err := p.Run(archive)
	require.NoError(t, err)
	assert.Equal(t, Done, p.Stage())
	assert.Equal(t, wpmltest.MissionEntry, res.Entry)
	assert.Equal(t, 3, res.Changed)
	assert.True(t, res.Report.OK())
	require.Len(t, res.Report.Results, 3)

	assert.Equal(t, rawEntry(t, archive, "wpmz/template.kml"), rawEntry(t, res.Archive, "wpmz/template.kml"))

	mission, err := kmz.Extract(res.Archive, wpmltest.MissionEntry)
	require.NoError(t, err)
	doc, err := wpml.Parse(mission)
	require.NoError(t, err)
	for _, wp := range doc.Waypoints {
		require.Len(t, wp.Groups, 1)
		assert.True(t, wp.Groups[0].Implements(model.NewHoverThenPhoto(2)))
	}

	assert.Equal(t, 3, res.Summary.Waypoints)
	assert.Equal(t, 3, res.Summary.ActionGroups)
	assert.Equal(t, 5.0, res.Summary.SpeedMS)
	assert.Equal(t, 2, res.Summary.HoverSeconds)
	assert.InDelta(t, res.Summary.RouteLengthM/5+6, res.Summary.EstimatedSeconds, 1e-9)

	for _, stage := range []Stage{Extracted, Parsed, Injected, Serialized, Repacked, Validated, Done} {
		assert.Contains(t, logs.String(), `"stage":"`+string(stage)+`"`)
	}
}

func TestRun_Idempotent(t *testing.T) {
	opts := Options{Policy: model.NewPhotoOnly()}
	first, err := Run(wpmltest.Archive(t, wpmltest.Route(2)), opts)
	require.NoError(t, err)

	second, err := Run(first.Archive, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Changed)

	a, err := kmz.Extract(first.Archive, wpmltest.MissionEntry)
	require.NoError(t, err)
	b, err := kmz.Extract(second.Archive, wpmltest.MissionEntry)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	third, err := Run(second.Archive, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, third.Changed)
	assert.Equal(t, second.Archive, third.Archive, "a rerun without changes must not touch the archive")
}

func TestRun_LocatesNestedEntry(t *testing.T) {
	archive := zipOf(t, map[string]string{
		"Survey 12/wpmz/waylines.wpml": wpmltest.Route(1),
	})
	res, err := Run(archive, Options{Policy: model.NewPhotoOnly()})
	require.NoError(t, err)
	assert.Equal(t, "Survey 12/wpmz/waylines.wpml", res.Entry)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		archive func(t *testing.T) []byte
		policy  model.Policy
		stage   Stage
		want    error
	}{
		{
			name:    "invalid hover",
			archive: func(t *testing.T) []byte { return wpmltest.Archive(t, wpmltest.Route(1)) },
			policy:  model.NewHoverThenPhoto(61),
			stage:   Idle,
			want:    model.ErrInvalidConfiguration,
		},
		{
			name: "missing entry",
			archive: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{"wpmz/template.kml": wpmltest.Template})
			},
			policy: model.NewPhotoOnly(),
			stage:  Idle,
			want:   model.ErrEntryNotFound,
		},
		{
			name: "malformed mission",
			archive: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{wpmltest.MissionEntry: "<kml><Document></kml>"})
			},
			policy: model.NewPhotoOnly(),
			stage:  Extracted,
			want:   model.ErrMalformedMission,
		},
		{
			name:    "not an archive",
			archive: func(t *testing.T) []byte { return []byte(wpmltest.Route(1)) },
			policy:  model.NewPhotoOnly(),
			stage:   Idle,
			want:    model.ErrMalformedMission,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Options{Policy: tt.policy})
			res, err := p.Run(tt.archive(t))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, Failed, p.Stage())

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
		})
	}
}

func TestRun_SingleUse(t *testing.T) {
	p := New(Options{Policy: model.NewPhotoOnly()})
	_, err := p.Run(wpmltest.Archive(t, wpmltest.Route(1)))
	require.NoError(t, err)
	_, err = p.Run(wpmltest.Archive(t, wpmltest.Route(1)))
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mission.kmz")
	require.NoError(t, os.WriteFile(in, wpmltest.Archive(t, wpmltest.Route(3)), 0o644))
	out := filepath.Join(dir, "out", model.DefaultOutputFilename)

	res, err := ProcessFile(in, out, false, Options{Policy: model.NewHoverThenPhoto(2)})
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Archive, written)

	leftovers, err := filepath.Glob(filepath.Join(dir, "out", ".wpmlkit-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestProcessFile_RefusesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mission.kmz")
	original := wpmltest.Archive(t, wpmltest.Route(2))
	require.NoError(t, os.WriteFile(in, original, 0o644))

	_, err := ProcessFile(in, in, false, Options{Policy: model.NewPhotoOnly()})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	// in place with overwrite
	res, err := ProcessFile(in, in, true, Options{Policy: model.NewPhotoOnly()})
	require.NoError(t, err)
	data, err = os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, res.Archive, data)
}

func TestProcessFile_NoOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mission.kmz")
	require.NoError(t, os.WriteFile(in, zipOf(t, map[string]string{"wpmz/template.kml": wpmltest.Template}), 0o644))
	out := filepath.Join(dir, "out.kmz")

	_, err := ProcessFile(in, out, false, Options{Policy: model.NewPhotoOnly()})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
	assert.NoFileExists(t, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessFile_BadInputs(t *testing.T) {
	dir := t.TempDir()
	_, err := ProcessFile(filepath.Join(dir, "missing.kmz"), filepath.Join(dir, "out.kmz"), false, Options{Policy: model.NewPhotoOnly()})
	require.Error(t, err)
	assert.Equal(t, "IOError", model.KindOf(err))

	_, err = ProcessFile(filepath.Join(dir, "missing.kmz"), filepath.Join(dir, "out.zip"), false, Options{Policy: model.NewPhotoOnly()})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}
