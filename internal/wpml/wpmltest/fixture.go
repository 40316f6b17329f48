// Package wpmltest builds small WPML missions and KMZ archives for tests.
package wpmltest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// MissionEntry is where Archive stores the mission.
const MissionEntry = "wpmz/waylines.wpml"

// Template is the template.kml stored next to the mission by Archive.
const Template = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:wpml="http://www.dji.com/wpmz/1.0.6">
  <Document>
    <wpml:author>fly</wpml:author>
  </Document>
</kml>
`

const head = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:wpml="http://www.dji.com/wpmz/1.0.6">
  <Document>
    <wpml:missionConfig>
      <wpml:flyToWaylineMode>safely</wpml:flyToWaylineMode>
      <wpml:finishAction>goHome</wpml:finishAction>
      <wpml:globalTransitionalSpeed>8</wpml:globalTransitionalSpeed>
    </wpml:missionConfig>
    <Folder>
      <wpml:templateId>0</wpml:templateId>
      <wpml:executeHeightMode>relativeToStartPoint</wpml:executeHeightMode>
      <wpml:waylineId>0</wpml:waylineId>
      <wpml:autoFlightSpeed>5</wpml:autoFlightSpeed>`

const tail = `
    </Folder>
  </Document>
</kml>
`

// Mission wraps placemarks in a single-route document.
func Mission(placemarks ...string) string {
	return head + strings.Join(placemarks, "") + tail
}

// Waypoint is a Placemark at the given position followed by groups.
func Waypoint(index int, lon, lat float64, groups ...string) string {
	return fmt.Sprintf(`
      <Placemark>
        <Point>
          <coordinates>
            %g,%g
          </coordinates>
        </Point>
        <wpml:index>%d</wpml:index>
        <wpml:executeHeight>50</wpml:executeHeight>
        <wpml:waypointSpeed>5</wpml:waypointSpeed>
        <wpml:waypointHeadingParam>
          <wpml:waypointHeadingMode>followWayline</wpml:waypointHeadingMode>
        </wpml:waypointHeadingParam>
        <wpml:useStraightLine>1</wpml:useStraightLine>%s
      </Placemark>`, lon, lat, index, strings.Join(groups, ""))
}

// Route is n waypoints with no action groups, spaced ~100 m apart.
func Route(n int) string {
	pms := make([]string, n)
	for i := range pms {
		pms[i] = Waypoint(i, 114.0+float64(i)*0.001, 22.0)
	}
	return Mission(pms...)
}

// Group is an action group for waypoint number with the given trigger.
func Group(id, number int, trigger string, actions ...string) string {
	return fmt.Sprintf(`
        <wpml:actionGroup>
          <wpml:actionGroupId>%d</wpml:actionGroupId>
          <wpml:actionGroupStartIndex>%d</wpml:actionGroupStartIndex>
          <wpml:actionGroupEndIndex>%d</wpml:actionGroupEndIndex>
          <wpml:actionGroupMode>sequence</wpml:actionGroupMode>
          <wpml:actionTrigger>
            <wpml:actionTriggerType>%s</wpml:actionTriggerType>
          </wpml:actionTrigger>%s
        </wpml:actionGroup>`, id, number, number, trigger, strings.Join(actions, ""))
}

// Hover is a hover action.
func Hover(id int, seconds float64) string {
	return action(id, "hover", fmt.Sprintf(`
              <wpml:hoverTime>%g</wpml:hoverTime>`, seconds))
}

// Photo is a takePhoto action with default payload settings.
func Photo(id int) string {
	return action(id, "takePhoto", `
              <wpml:payloadPositionIndex>0</wpml:payloadPositionIndex>
              <wpml:fileSuffix/>
              <wpml:useGlobalPayloadLensIndex>0</wpml:useGlobalPayloadLensIndex>`)
}

// Gimbal is a gimbalRotate action, outside the hover/photo domain.
func Gimbal(id int) string {
	return action(id, "gimbalRotate", `
              <wpml:gimbalPitchRotateAngle>-90</wpml:gimbalPitchRotateAngle>
              <wpml:payloadPositionIndex>0</wpml:payloadPositionIndex>`)
}

func action(id int, fn, params string) string {
	return fmt.Sprintf(`
          <wpml:action>
            <wpml:actionId>%d</wpml:actionId>
            <wpml:actionActuatorFunc>%s</wpml:actionActuatorFunc>
            <wpml:actionActuatorFuncParam>%s
            </wpml:actionActuatorFuncParam>
          </wpml:action>`, id, fn, params)
}

// Archive packs mission into a KMZ laid out the way the DJI RC expects.
func Archive(t testing.TB, mission string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.CreateHeader(&zip.FileHeader{Name: "wpmz/", Method: zip.Store})
	require.NoError(t, err)
	for _, e := range []struct{ name, data string }{
		{"wpmz/template.kml", Template},
		{MissionEntry, mission},
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
