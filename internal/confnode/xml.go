package confnode

import (
	"github.com/beevik/etree"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

type xmlNode struct {
	el *etree.Element
}

// FromElement wraps an etree element.
func FromElement(el *etree.Element) Node {
	if el == nil {
		return nil
	}
	return xmlNode{el: el}
}

func (n xmlNode) Tag() string { return n.el.Tag }

func (n xmlNode) Attr(name string) (string, bool) {
	a := n.el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

func (n xmlNode) Child(tag string) Node {
	c := n.el.SelectElement(tag)
	if c == nil {
		return nil
	}
	return xmlNode{el: c}
}

func (n xmlNode) Children() []Node {
	elems := n.el.ChildElements()
	out := make([]Node, 0, len(elems))
	for _, c := range elems {
		out = append(out, xmlNode{el: c})
	}
	return out
}

func (n xmlNode) Text() string { return n.el.Text() }

// ParseXML parses an XML document.
func ParseXML(text string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, &dynamo.ConfigError{Element: "document", Wrapped: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, dynamo.Malformed("document", "", "", "no root element")
	}
	return &Document{
		root: xmlNode{el: root},
		release: func() {
			doc = nil
		},
	}, nil
}
