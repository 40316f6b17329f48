package validate

import (
	"strings"
	"testing"

	"github.com/sourceplane/wpmlkit/internal/inject"
	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/wpml"
	"github.com/sourceplane/wpmlkit/internal/wpml/wpmltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *wpml.Document {
	t.Helper()
	doc, err := wpml.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestValidate(t *testing.T) {
	doc := parse(t, wpmltest.Mission(
		wpmltest.Waypoint(0, 114.0, 22.0,
			wpmltest.Group(0, 0, "reachPoint", wpmltest.Hover(0, 2), wpmltest.Photo(1)),
		),
		wpmltest.Waypoint(1, 114.001, 22.0),
		wpmltest.Waypoint(2, 114.002, 22.0,
			wpmltest.Group(2, 2, "reachPoint", wpmltest.Photo(0)),
		),
		wpmltest.Waypoint(3, 114.003, 22.0,
			wpmltest.Group(3, 3, "reachPoint", wpmltest.Hover(0, 2), wpmltest.Photo(1)),
			wpmltest.Group(4, 3, "reachPoint", wpmltest.Hover(0, 2), wpmltest.Photo(1)),
		),
	))

	report := Validate(doc, model.NewHoverThenPhoto(2))
	assert.Equal(t, "hover_then_photo(2s)", report.Policy)
	require.Len(t, report.Results, 4)
	assert.False(t, report.OK())

	assert.True(t, report.Results[0].Satisfied)
	assert.Equal(t, 1, report.Results[0].Matching)

	assert.False(t, report.Results[1].Satisfied)
	assert.Equal(t, "no action groups", report.Results[1].Reason)

	assert.False(t, report.Results[2].Satisfied)
	assert.Contains(t, report.Results[2].Reason, "[takePhoto]")

	assert.False(t, report.Results[3].Satisfied)
	assert.Equal(t, 2, report.Results[3].Matching)

	failures := report.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{failures[0].Index, failures[1].Index, failures[2].Index})
}

func TestValidate_DoesNotMutate(t *testing.T) {
	src := wpmltest.Route(2)
	doc := parse(t, src)
	Validate(doc, model.NewPhotoOnly())
	Check(doc)

	out, err := doc.Serialize()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestValidate_AfterInjection(t *testing.T) {
	for _, p := range []model.Policy{model.NewPhotoOnly(), model.NewHoverThenPhoto(1), model.NewHoverThenPhoto(60)} {
		doc := parse(t, wpmltest.Route(5))
		_, err := inject.ApplyPolicy(doc, p)
		require.NoError(t, err)
		assert.True(t, Validate(doc, p).OK(), "in memory, policy %s", p)

		out, err := doc.Serialize()
		require.NoError(t, err)
		assert.True(t, Validate(parse(t, string(out)), p).OK(), "re-parsed, policy %s", p)
	}
}

func TestValidate_EmptyRoute(t *testing.T) {
	report := Validate(parse(t, wpmltest.Mission()), model.NewPhotoOnly())
	assert.Empty(t, report.Results)
	assert.True(t, report.OK())
}

func TestCheck(t *testing.T) {
	noAnchor := strings.Replace(wpmltest.Waypoint(1, 114.001, 22.0),
		"\n        <wpml:useStraightLine>1</wpml:useStraightLine>", "", 1)
	doc := parse(t, wpmltest.Mission(
		wpmltest.Waypoint(0, 114.0, 22.0,
			wpmltest.Group(0, 0, "reachPoint", wpmltest.Hover(0, 2), wpmltest.Photo(0)),
		),
		noAnchor,
	))

	c := Check(doc)
	assert.True(t, c.Valid())
	assert.Equal(t, 2, c.Waypoints)
	assert.Equal(t, 2, c.Actions)
	assert.Contains(t, c.Warnings, "waypoint 0 group 0: duplicate actionId 0")
	assert.Contains(t, c.Warnings, "waypoint 1: no useStraightLine element")
	assert.Contains(t, c.Warnings, "mission already contains 2 actions")
}

func TestCheck_NoWaypoints(t *testing.T) {
	c := Check(parse(t, wpmltest.Mission()))
	assert.False(t, c.Valid())
	assert.Equal(t, []string{"mission has no waypoints"}, c.Errors)
}
