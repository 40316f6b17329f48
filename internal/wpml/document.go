package wpml

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// NamespacePrefix is the start of every DJI WPML namespace URI; the suffix
// carries the schema version (e.g. 1.0.6).
const NamespacePrefix = "http://www.dji.com/wpmz/"

const defaultStep = "  "

// Document is a parsed waylines.wpml. The original bytes are kept and every
// region the engine does not change is emitted from them verbatim.
type Document struct {
	raw     []byte
	root    *node
	route   *node
	prefix  string
	newline string

	Namespace       string
	AutoFlightSpeed float64
	Waypoints       []*Waypoint
}

// Waypoint is one Placemark of the route
type Waypoint struct {
	Index    int // position in the route
	Number   int // wpml:index, or Index when absent
	Position model.Position
	Speed    float64
	Groups   []*ActionGroup

	src     *node
	prefix  string
	removed []*ActionGroup
}

// Parse builds a Document from mission XML. The root must be a kml element
// holding one Document with exactly one Folder (the route), and the WPML
// namespace must be declared.
func Parse(data []byte) (*Document, error) {
	root, err := scan(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedMission, err)
	}
	if root.local != "kml" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <kml>", model.ErrMalformedMission, root.local)
	}
	docs := root.childrenNamed("Document")
	if len(docs) != 1 {
		return nil, fmt.Errorf("%w: expected one <Document>, found %d", model.ErrMalformedMission, len(docs))
	}
	folders := docs[0].childrenNamed("Folder")
	switch {
	case len(folders) == 0:
		return nil, fmt.Errorf("%w: no route <Folder> in mission", model.ErrMalformedMission)
	case len(folders) > 1:
		return nil, fmt.Errorf("%w: %d routes found, only single-route missions are supported", model.ErrMalformedMission, len(folders))
	}
	route := folders[0]

	prefix, uri := wpmlPrefix(route.ns)
	if uri == "" {
		return nil, fmt.Errorf("%w: WPML namespace (%s...) is not declared", model.ErrMalformedMission, NamespacePrefix)
	}

	doc := &Document{
		raw:       data,
		root:      root,
		route:     route,
		prefix:    prefix,
		newline:   "\n",
		Namespace: uri,
	}
	if bytes.Contains(data, []byte("\r\n")) {
		doc.newline = "\r\n"
	}
	for _, c := range route.children {
		if isWPML(c) && c.local == "autoFlightSpeed" {
			doc.AutoFlightSpeed = doc.floatOf(c)
		}
	}

	for i, pm := range route.childrenNamed("Placemark") {
		wp, err := doc.decodeWaypoint(i, pm)
		if err != nil {
			return nil, fmt.Errorf("%w: waypoint %d: %v", model.ErrMalformedMission, i, err)
		}
		doc.Waypoints = append(doc.Waypoints, wp)
	}
	return doc, nil
}

func (d *Document) decodeWaypoint(i int, pm *node) (*Waypoint, error) {
	if len(pm.children) == 0 {
		return nil, errors.New("placemark has no content")
	}
	el, err := decodeElement(d.raw[pm.start:pm.end])
	if err != nil {
		return nil, err
	}

	wp := &Waypoint{Index: i, Number: i, src: pm, prefix: d.prefix}
	if p, _ := wpmlPrefix(pm.ns); p != "" {
		wp.prefix = p
	}
	wp.Number = intText(el.SelectElement("index"), i)
	wp.Speed = floatText(el.SelectElement("waypointSpeed"))
	wp.Position.Height = floatText(el.SelectElement("executeHeight"))
	if c := el.FindElement("Point/coordinates"); c != nil {
		if pos, ok := parseCoordinates(text(c)); ok {
			pos.Height = wp.Position.Height
			wp.Position = pos
		}
	}

	for _, c := range pm.children {
		if !isWPML(c) || c.local != "actionGroup" {
			continue
		}
		g, err := decodeGroup(d.raw[c.start:c.end])
		if err != nil {
			return nil, fmt.Errorf("action group at offset %d: %v", c.start, err)
		}
		g.src = c
		g.cut = d.cutStart(c)
		wp.Groups = append(wp.Groups, g)
	}
	return wp, nil
}

// cutStart is where removal of a group begins: its own line, plus a directly
// preceding "Action Group for Waypoint" comment when there is one.
func (d *Document) cutStart(n *node) int {
	start := n.start
	if n.commentStart >= 0 && strings.Contains(n.comment, "Action Group for Waypoint") {
		start = n.commentStart
	}
	return lineStart(d.raw, start)
}

func (d *Document) floatOf(n *node) float64 {
	el, err := decodeElement(d.raw[n.start:n.end])
	if err != nil {
		return 0
	}
	return floatText(el)
}

// Prefix is the namespace prefix bound to WPML on the route.
func (d *Document) Prefix() string {
	return d.prefix
}

// Bytes returns the original document bytes.
func (d *Document) Bytes() []byte {
	return d.raw
}

// HasElement reports whether the waypoint has a direct WPML child element
// with the given local name.
func (w *Waypoint) HasElement(local string) bool {
	for _, c := range w.src.children {
		if isWPML(c) && c.local == local {
			return true
		}
	}
	return false
}

// Replace removes the stale groups and inserts g where the first of them
// was. Without stale groups g goes after the last existing group, then after
// useStraightLine, then after the waypoint's last child element.
func (w *Waypoint) Replace(stale []*ActionGroup, g *ActionGroup) {
	drop := make(map[*ActionGroup]bool, len(stale))
	for _, s := range stale {
		drop[s] = true
	}

	pos, at := -1, -1
	kept := make([]*ActionGroup, 0, len(w.Groups)+1)
	for _, cur := range w.Groups {
		if !drop[cur] {
			kept = append(kept, cur)
			continue
		}
		if pos < 0 {
			pos, at = len(kept), cur.anchor()
		}
		if !cur.Generated() {
			w.removed = append(w.removed, cur)
		}
	}

	if g == nil {
		w.Groups = kept
		return
	}
	if pos < 0 {
		pos = len(kept)
		if len(kept) > 0 {
			at = kept[len(kept)-1].anchor()
		} else {
			at = w.anchor()
		}
	}
	g.src = nil
	g.at = at
	kept = append(kept, nil)
	copy(kept[pos+1:], kept[pos:])
	kept[pos] = g
	w.Groups = kept
}

// anchor is the offset a group placed after this one is inserted at.
func (g *ActionGroup) anchor() int {
	if g.src != nil {
		return g.src.end
	}
	return g.at
}

func (w *Waypoint) anchor() int {
	var last *node
	for _, c := range w.src.children {
		if isWPML(c) && c.local == "useStraightLine" {
			return c.end
		}
		last = c
	}
	return last.end
}

// layoutAt derives indentation for a group inserted in this waypoint from
// the surrounding document.
func (d *Document) layoutAt(w *Waypoint) layout {
	l := layout{newline: d.newline, step: defaultStep}
	child := w.src.children[0]
	l.indent = lineIndent(d.raw, child.start)
	outer := lineIndent(d.raw, w.src.start)
	if len(l.indent) > len(outer) && strings.HasPrefix(l.indent, outer) {
		l.step = l.indent[len(outer):]
	}
	return l
}

type edit struct {
	start, end int
	text       []byte
}

// Serialize emits the document. Unmodified documents are returned
// byte-identical; otherwise only removed groups are cut and generated groups
// are rendered in place.
func (d *Document) Serialize() ([]byte, error) {
	var edits []edit
	for _, w := range d.Waypoints {
		for _, g := range w.removed {
			edits = append(edits, edit{start: g.cut, end: g.src.end})
		}
		for _, g := range w.Groups {
			if !g.Generated() {
				continue
			}
			text, err := renderGroup(g, w.prefix, w.Number, d.layoutAt(w))
			if err != nil {
				return nil, fmt.Errorf("waypoint %d: %w", w.Index, err)
			}
			edits = append(edits, edit{start: g.at, end: g.at, text: text})
		}
	}
	if len(edits) == 0 {
		return bytes.Clone(d.raw), nil
	}

	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end < edits[j].end
	})

	var buf bytes.Buffer
	buf.Grow(len(d.raw) + len(edits)*1024)
	cursor := 0
	for _, e := range edits {
		if e.start > cursor {
			buf.Write(d.raw[cursor:e.start])
		}
		buf.Write(e.text)
		if e.end > cursor {
			cursor = e.end
		}
	}
	buf.Write(d.raw[cursor:])
	return buf.Bytes(), nil
}

func isWPML(n *node) bool {
	return strings.HasPrefix(n.space, NamespacePrefix)
}

// wpmlPrefix picks the prefix bound to the WPML namespace in scope,
// preferring "wpml" and otherwise the lexically first one.
func wpmlPrefix(scope map[string]string) (string, string) {
	if uri, ok := scope["wpml"]; ok && strings.HasPrefix(uri, NamespacePrefix) {
		return "wpml", uri
	}
	var prefixes []string
	for p, uri := range scope {
		if p != "" && strings.HasPrefix(uri, NamespacePrefix) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return "", ""
	}
	sort.Strings(prefixes)
	return prefixes[0], scope[prefixes[0]]
}

func parseCoordinates(s string) (model.Position, bool) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 2 {
		return model.Position{}, false
	}
	var vals [3]float64
	for i := 0; i < len(parts) && i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return model.Position{}, false
		}
		vals[i] = v
	}
	return model.Position{Lon: vals[0], Lat: vals[1], Height: vals[2]}, true
}
