package wpml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// node is one element of the mission tree, located by byte offsets into the
// original document. Only structure is kept; content is decoded on demand.
type node struct {
	prefix string
	local  string
	space  string // namespace URI the prefix resolves to
	start  int    // offset of '<'
	end    int    // offset just past the closing tag
	ns     map[string]string

	// comment directly preceding this element among its siblings
	commentStart int
	comment      string

	children []*node
}

func (n *node) childrenNamed(local string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.local == local {
			out = append(out, c)
		}
	}
	return out
}

// scan tokenizes data and returns the root element. Start/end tag pairing is
// checked here because RawToken does not do it.
func scan(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		root    *node
		stack   []*node
		comment = -1
		text    string
	)
	for {
		off := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{
				prefix:       t.Name.Space,
				local:        t.Name.Local,
				start:        off,
				commentStart: comment,
				comment:      text,
			}
			var scope map[string]string
			if len(stack) > 0 {
				scope = stack[len(stack)-1].ns
			}
			n.ns = declare(scope, t.Attr)
			n.space = n.ns[n.prefix]

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("unexpected second root element <%s> at offset %d", qualified(t.Name), off)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
			comment, text = -1, ""

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag </%s> at offset %d", qualified(t.Name), off)
			}
			top := stack[len(stack)-1]
			if top.prefix != t.Name.Space || top.local != t.Name.Local {
				return nil, fmt.Errorf("closing tag </%s> does not match <%s> at offset %d", qualified(t.Name), qualified(xml.Name{Space: top.prefix, Local: top.local}), off)
			}
			top.end = int(dec.InputOffset())
			stack = stack[:len(stack)-1]
			comment, text = -1, ""

		case xml.Comment:
			comment, text = off, string(t)

		case xml.CharData:
			if off == 0 {
				t = bytes.TrimPrefix(t, utf8BOM)
			}
			if len(bytes.TrimSpace(t)) > 0 {
				if len(stack) == 0 {
					return nil, fmt.Errorf("text outside root element at offset %d", off)
				}
				comment, text = -1, ""
			}

		default:
			comment, text = -1, ""
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].local)
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// declare returns the namespace scope for an element, copying the parent
// scope only when the element declares something new.
func declare(parent map[string]string, attrs []xml.Attr) map[string]string {
	scope := parent
	copied := false
	for _, a := range attrs {
		var prefix string
		switch {
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = ""
		default:
			continue
		}
		if !copied {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
			copied = true
		}
		scope[prefix] = a.Value
	}
	return scope
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// lineIndent returns the whitespace between the start of the line and pos,
// or "" when anything else precedes pos on that line.
func lineIndent(data []byte, pos int) string {
	i := pos
	for i > 0 && (data[i-1] == ' ' || data[i-1] == '\t') {
		i--
	}
	if i == 0 || data[i-1] == '\n' {
		return string(data[i:pos])
	}
	return ""
}

// lineStart extends pos backwards over indentation and the preceding line
// break, so that cutting [lineStart, end) removes whole lines.
func lineStart(data []byte, pos int) int {
	i := pos
	for i > 0 && (data[i-1] == ' ' || data[i-1] == '\t') {
		i--
	}
	if i > 0 && data[i-1] == '\n' {
		i--
		if i > 0 && data[i-1] == '\r' {
			i--
		}
		return i
	}
	return pos
}
