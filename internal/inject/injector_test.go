package inject

import (
	"strings"
	"testing"

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

// roundTrip serializes doc and parses the result again.
func roundTrip(t *testing.T, doc *wpml.Document) (*wpml.Document, []byte) {
	t.Helper()
	out, err := doc.Serialize()
	require.NoError(t, err)
	return parse(t, string(out)), out
}

func kinds(g *wpml.ActionGroup) []string {
	out := make([]string, len(g.Actions))
	for i, a := range g.Actions {
		out[i] = model.Describe(a)
	}
	return out
}

func TestApply_HoverThenPhotoOnEmptyRoute(t *testing.T) {
	doc := parse(t, wpmltest.Route(3))

	changed, err := ApplyPolicy(doc, model.NewHoverThenPhoto(2))
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	out, _ := roundTrip(t, doc)
	require.Len(t, out.Waypoints, 3)
	for i, wp := range out.Waypoints {
		require.Len(t, wp.Groups, 1, "waypoint %d", i)
		g := wp.Groups[0]
		assert.Equal(t, []string{"hover(2s)", "takePhoto"}, kinds(g))
		assert.Equal(t, i, g.ID)
		assert.Equal(t, i, g.StartIndex)
		assert.Equal(t, i, g.EndIndex)
		assert.Equal(t, model.TriggerReachPoint, g.Trigger)
	}
}

func TestApply_PhotoOnlyReplacesHover(t *testing.T) {
	doc := parse(t, wpmltest.Route(3))
	_, err := ApplyPolicy(doc, model.NewHoverThenPhoto(2))
	require.NoError(t, err)
	doc, _ = roundTrip(t, doc)

	changed, err := ApplyPolicy(doc, model.NewPhotoOnly())
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	out, raw := roundTrip(t, doc)
	assert.NotContains(t, string(raw), "hoverTime")
	for _, wp := range out.Waypoints {
		require.Len(t, wp.Groups, 1)
		assert.Equal(t, []string{"takePhoto"}, kinds(wp.Groups[0]))
		assert.Equal(t, wp.Number, wp.Groups[0].ID)
	}
}

func TestApply_Idempotent(t *testing.T) {
	for _, p := range []model.Policy{model.NewPhotoOnly(), model.NewHoverThenPhoto(5)} {
		t.Run(p.String(), func(t *testing.T) {
			doc := parse(t, wpmltest.Route(4))
			_, err := ApplyPolicy(doc, p)
			require.NoError(t, err)
			once, first := roundTrip(t, doc)

			changed, err := ApplyPolicy(once, p)
			require.NoError(t, err)
			assert.Equal(t, 0, changed)

			second, err := once.Serialize()
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestApply_IdempotentInMemory(t *testing.T) {
	doc := parse(t, wpmltest.Route(2))
	p := model.NewHoverThenPhoto(3)
	_, err := ApplyPolicy(doc, p)
	require.NoError(t, err)

	changed, err := ApplyPolicy(doc, p)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	for _, wp := range doc.Waypoints {
		assert.Len(t, wp.Groups, 1)
	}
}

func TestApply_KeepsExistingMatch(t *testing.T) {
	src := wpmltest.Mission(
		wpmltest.Waypoint(0, 114.0, 22.0,
			wpmltest.Group(9, 0, "reachPoint", wpmltest.Hover(0, 2), wpmltest.Photo(1)),
		),
	)
	doc := parse(t, src)

	changed, err := ApplyPolicy(doc, model.NewHoverThenPhoto(2))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	out, err := doc.Serialize()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestApply_RemovesDuplicateMatches(t *testing.T) {
	doc := parse(t, wpmltest.Mission(
		wpmltest.Waypoint(0, 114.0, 22.0,
			wpmltest.Group(0, 0, "reachPoint", wpmltest.Photo(0)),
			wpmltest.Group(1, 0, "reachPoint", wpmltest.Photo(0)),
			wpmltest.Group(2, 0, "reachPoint", wpmltest.Hover(0, 4), wpmltest.Photo(1)),
		),
	))

	changed, err := ApplyPolicy(doc, model.NewPhotoOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	out, _ := roundTrip(t, doc)
	groups := out.Waypoints[0].Groups
	require.Len(t, groups, 1)
	assert.Equal(t, 0, groups[0].ID)
	assert.Equal(t, []string{"takePhoto"}, kinds(groups[0]))
}

func TestApply_PassesThroughUnrecognizedGroups(t *testing.T) {
	gimbal := wpmltest.Group(0, 0, "reachPoint", wpmltest.Gimbal(0))
	timed := wpmltest.Group(5, 0, "multipleTiming", wpmltest.Photo(0))
	src := wpmltest.Mission(wpmltest.Waypoint(0, 114.0, 22.0, gimbal, timed))
	doc := parse(t, src)

	_, err := ApplyPolicy(doc, model.NewHoverThenPhoto(2))
	require.NoError(t, err)

	out, raw := roundTrip(t, doc)
	assert.Contains(t, string(raw), gimbal)
	assert.Contains(t, string(raw), timed)

	groups := out.Waypoints[0].Groups
	require.Len(t, groups, 3)
	assert.Equal(t, "gimbalRotate", groups[0].Actions[0].Func())
	assert.Equal(t, "multipleTiming", groups[1].Trigger)
	assert.True(t, groups[2].Implements(model.NewHoverThenPhoto(2)))
	// id 0 is taken by the gimbal group
	assert.Equal(t, 1, groups[2].ID)
}

func TestApply_ReplacesInPlace(t *testing.T) {
	gimbal := wpmltest.Group(3, 0, "reachPoint", wpmltest.Gimbal(0))
	doc := parse(t, wpmltest.Mission(
		wpmltest.Waypoint(0, 114.0, 22.0,
			wpmltest.Group(0, 0, "reachPoint", wpmltest.Hover(0, 10), wpmltest.Photo(1)),
			gimbal,
		),
	))

	_, err := ApplyPolicy(doc, model.NewPhotoOnly())
	require.NoError(t, err)

	out, raw := roundTrip(t, doc)
	groups := out.Waypoints[0].Groups
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Implements(model.NewPhotoOnly()))
	assert.Equal(t, "gimbalRotate", groups[1].Actions[0].Func())
	assert.Less(t, strings.Index(string(raw), "takePhoto"), strings.Index(string(raw), "gimbalRotate"))
}

func TestApply_NeverTwoMatchingGroups(t *testing.T) {
	doc := parse(t, wpmltest.Route(3))
	sequence := []model.Policy{
		model.NewHoverThenPhoto(2),
		model.NewPhotoOnly(),
		model.NewHoverThenPhoto(60),
		model.NewHoverThenPhoto(60),
		model.NewHoverThenPhoto(1),
		model.NewPhotoOnly(),
	}
	for _, p := range sequence {
		_, err := ApplyPolicy(doc, p)
		require.NoError(t, err)
		doc, _ = roundTrip(t, doc)

		for _, wp := range doc.Waypoints {
			matching := 0
			for _, g := range wp.Groups {
				if g.Implements(p) {
					matching++
				}
			}
			assert.Equal(t, 1, matching, "policy %s waypoint %d", p, wp.Index)
			assert.Len(t, wp.Groups, 1)
			assert.Equal(t, wp.Number, wp.Groups[0].ID)
		}
	}
}

func TestApply_PreservesNavigationData(t *testing.T) {
	src := wpmltest.Route(3)
	doc := parse(t, src)
	_, err := ApplyPolicy(doc, model.NewHoverThenPhoto(2))
	require.NoError(t, err)
	out, raw := roundTrip(t, doc)

	orig := parse(t, src)
	for i, wp := range out.Waypoints {
		assert.Equal(t, orig.Waypoints[i].Position, wp.Position)
		assert.Equal(t, orig.Waypoints[i].Speed, wp.Speed)
	}
	assert.Contains(t, string(raw), "<wpml:waypointHeadingMode>followWayline</wpml:waypointHeadingMode>")
	assert.True(t, strings.HasPrefix(string(raw), src[:strings.Index(src, "<Placemark>")]))
}

func TestApply_HoverBounds(t *testing.T) {
	for _, secs := range []int{0, 61, -1} {
		doc := parse(t, wpmltest.Route(2))
		changed, err := ApplyPolicy(doc, model.NewHoverThenPhoto(secs))
		require.Error(t, err, "hover %d", secs)
		assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
		assert.Equal(t, 0, changed)
		for _, wp := range doc.Waypoints {
			assert.Empty(t, wp.Groups)
		}
	}
	for _, secs := range []int{1, 60} {
		doc := parse(t, wpmltest.Route(2))
		_, err := ApplyPolicy(doc, model.NewHoverThenPhoto(secs))
		require.NoError(t, err, "hover %d", secs)
	}
}

func TestApply_ZeroWaypoints(t *testing.T) {
	src := wpmltest.Mission()
	doc := parse(t, src)
	changed, err := ApplyPolicy(doc, model.NewPhotoOnly())
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	out, err := doc.Serialize()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}
