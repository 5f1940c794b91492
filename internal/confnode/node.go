package confnode

import (
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Node is a read-only configuration element.
type Node interface {
	Tag() string
	// Attr returns the raw attribute text and whether it was present.
	Attr(name string) (string, bool)
	// Child returns the first child element with the given tag, or nil.
	Child(tag string) Node
	Children() []Node
	Text() string
}

// Document owns a parsed tree.
type Document struct {
	root    Node
	release func()
}

// Root returns the top-level node, or nil after Release.
func (d *Document) Root() Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Release drops the parsed tree. It is safe to call more than once.
func (d *Document) Release() {
	if d == nil {
		return
	}
	if d.release != nil {
		d.release()
		d.release = nil
	}
	d.root = nil
}

// Parse detects the encoding of text and parses it. Text whose first
// non-blank character is '<' is read as XML, anything else as YAML.
func Parse(text string) (*Document, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, dynamo.Malformed("document", "", "", "empty configuration text")
	}
	if strings.HasPrefix(trimmed, "<") {
		return ParseXML(trimmed)
	}
	return ParseYAML(trimmed)
}

// Find returns n itself when its tag matches, otherwise the first matching
// descendant in document order.
func Find(n Node, tag string) Node {
	if n == nil {
		return nil
	}
	if n.Tag() == tag {
		return n
	}
	for _, c := range n.Children() {
		if found := Find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// ChildrenByTag returns the direct children carrying tag.
func ChildrenByTag(n Node, tag string) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Tag() == tag {
			out = append(out, c)
		}
	}
	return out
}

// MustChild returns the child with tag or a malformed-config error.
func MustChild(n Node, tag string) (Node, error) {
	c := n.Child(tag)
	if c == nil {
		return nil, dynamo.Malformed(n.Tag(), "", "", "missing <%s> element", tag)
	}
	return c, nil
}
