package control

import (
	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// FromNode builds a controller from a <controller class="..."> element.
// A nil node yields nil, nil. Angles in the element are in degrees.
//
//	none
//	twist    v, w
//	heading  v, heading, kp, ki, kd, max_rate
//	line     v, y, ky, kyaw
func FromNode(n confnode.Node) (Controller, error) {
	if n == nil {
		return nil, nil
	}
	class, err := confnode.String(n, "class")
	if err != nil {
		return nil, err
	}

	switch class {
	case "none":
		return NewNone(), nil

	case "twist":
		v, err := confnode.FloatOr(n, "v", 0)
		if err != nil {
			return nil, err
		}
		w, err := confnode.FloatOr(n, "w", 0)
		if err != nil {
			return nil, err
		}
		return NewTwist(v, dynamo.Deg2Rad(w)), nil

	case "heading":
		vals, err := floats(n, map[string]float64{
			"v": 0, "heading": 0, "kp": 2, "ki": 0, "kd": 0.1, "max_rate": 0,
		})
		if err != nil {
			return nil, err
		}
		h := NewHeading(vals["v"], dynamo.Deg2Rad(vals["heading"]), NewPID(vals["kp"], vals["ki"], vals["kd"]))
		h.MaxRate = dynamo.Deg2Rad(vals["max_rate"])
		return h, nil

	case "line":
		vals, err := floats(n, map[string]float64{"v": 0, "y": 0, "ky": 1, "kyaw": 2})
		if err != nil {
			return nil, err
		}
		return NewLineFollower(vals["v"], vals["y"], vals["ky"], vals["kyaw"]), nil
	}

	return nil, dynamo.Malformed(n.Tag(), "class", class, "unknown controller")
}

func floats(n confnode.Node, defaults map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(defaults))
	for name, def := range defaults {
		v, err := confnode.FloatOr(n, name, def)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
