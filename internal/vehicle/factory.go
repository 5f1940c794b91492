package vehicle

import (
	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Factory builds a fully configured vehicle from a <vehicle> node. On any
// error no vehicle is returned.
func (r *Registry) Factory(parent Parent, node confnode.Node) (*Vehicle, error) {
	if node == nil {
		return nil, dynamo.Malformed("vehicle", "", "", "no vehicle element")
	}
	class, err := confnode.String(node, "class")
	if err != nil {
		return nil, err
	}

	v, err := r.Construct(class, parent, node)
	if err != nil {
		return nil, err
	}
	if err := v.LoadParams(node); err != nil {
		return nil, err
	}

	if parent != nil {
		if log := parent.Logger(); log != nil {
			log.Debug().Str("vehicle", v.Name()).Str("class", class).Msg("vehicle configured")
		}
	}
	return v, nil
}

// FactoryFromText parses text (XML or YAML) and builds the first <vehicle>
// element found in it. The parsed document is released before returning.
func (r *Registry) FactoryFromText(parent Parent, text string) (*Vehicle, error) {
	doc, err := confnode.Parse(text)
	if err != nil {
		return nil, err
	}
	defer doc.Release()

	return r.Factory(parent, confnode.Find(doc.Root(), "vehicle"))
}

func Factory(parent Parent, node confnode.Node) (*Vehicle, error) {
	return Default.Factory(parent, node)
}

func FactoryFromText(parent Parent, text string) (*Vehicle, error) {
	return Default.FactoryFromText(parent, text)
}
