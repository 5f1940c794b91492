package confnode

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// yamlNode views a YAML mapping as an element: scalar entries and sequences of
// scalars are attributes, mapping entries are children, and sequences of
// mappings are repeated children sharing the key as tag.
type yamlNode struct {
	tag   string
	value *yaml.Node
}

func (n yamlNode) Tag() string { return n.tag }

func (n yamlNode) Attr(name string) (string, bool) {
	if n.value.Kind != yaml.MappingNode {
		return "", false
	}
	for i := 0; i+1 < len(n.value.Content); i += 2 {
		if n.value.Content[i].Value != name {
			continue
		}
		return flatten(n.value.Content[i+1])
	}
	return "", false
}

func (n yamlNode) Child(tag string) Node {
	for _, c := range n.Children() {
		if c.Tag() == tag {
			return c
		}
	}
	return nil
}

func (n yamlNode) Children() []Node {
	if n.value.Kind != yaml.MappingNode {
		return nil
	}
	var out []Node
	for i := 0; i+1 < len(n.value.Content); i += 2 {
		key, val := n.value.Content[i].Value, n.value.Content[i+1]
		switch val.Kind {
		case yaml.MappingNode:
			out = append(out, yamlNode{tag: key, value: val})
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind == yaml.MappingNode {
					out = append(out, yamlNode{tag: key, value: item})
				}
			}
		}
	}
	return out
}

func (n yamlNode) Text() string {
	if n.value.Kind == yaml.ScalarNode {
		return n.value.Value
	}
	return ""
}

// flatten renders scalars as-is, a sequence of scalars space separated and a
// sequence of scalar sequences as "a b; c d" rows.
func flatten(v *yaml.Node) (string, bool) {
	switch v.Kind {
	case yaml.ScalarNode:
		return v.Value, true
	case yaml.SequenceNode:
		parts := make([]string, 0, len(v.Content))
		rows := false
		for _, item := range v.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				parts = append(parts, item.Value)
			case yaml.SequenceNode:
				rows = true
				row, _ := flatten(item)
				parts = append(parts, row)
			default:
				return "", false
			}
		}
		if rows {
			return strings.Join(parts, "; "), true
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

// ParseYAML parses a YAML document whose top level is a single-key mapping,
// the key naming the root element.
func ParseYAML(text string) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &dynamo.ConfigError{Element: "document", Wrapped: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, dynamo.Malformed("document", "", "", "empty YAML document")
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode || len(top.Content) != 2 || top.Content[1].Kind != yaml.MappingNode {
		return nil, dynamo.Malformed("document", "", "", "YAML root must be a single mapping entry")
	}
	return &Document{
		root: yamlNode{tag: top.Content[0].Value, value: top.Content[1]},
		release: func() {
			doc = yaml.Node{}
		},
	}, nil
}
