package confnode

import (
	"strconv"
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// String returns a required attribute.
func String(n Node, attr string) (string, error) {
	v, ok := n.Attr(attr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", dynamo.Malformed(n.Tag(), attr, "", "required attribute missing")
	}
	return strings.TrimSpace(v), nil
}

// Float parses a required numeric attribute.
func Float(n Node, attr string) (float64, error) {
	raw, err := String(n, attr)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dynamo.Malformed(n.Tag(), attr, raw, "not a number")
	}
	return f, nil
}

// FloatOr parses an optional numeric attribute. A present but unparsable
// value is still an error.
func FloatOr(n Node, attr string, def float64) (float64, error) {
	if _, ok := n.Attr(attr); !ok {
		return def, nil
	}
	return Float(n, attr)
}

// Positive parses a required attribute that must be strictly positive.
func Positive(n Node, attr string) (float64, error) {
	f, err := Float(n, attr)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, dynamo.Malformed(n.Tag(), attr, strconv.FormatFloat(f, 'g', -1, 64), "must be positive")
	}
	return f, nil
}

// SplitFloats parses a list of numbers separated by blanks and/or commas.
func SplitFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Triple parses an attribute holding exactly three numbers.
func Triple(n Node, attr string) (dynamo.Vec3, error) {
	raw, err := String(n, attr)
	if err != nil {
		return dynamo.Vec3{}, err
	}
	return parseTriple(n.Tag(), attr, raw)
}

// TripleOr is Triple for optional attributes.
func TripleOr(n Node, attr string, def dynamo.Vec3) (dynamo.Vec3, error) {
	if _, ok := n.Attr(attr); !ok {
		return def, nil
	}
	return Triple(n, attr)
}

func parseTriple(element, attr, raw string) (dynamo.Vec3, error) {
	vals, err := SplitFloats(raw)
	if err != nil {
		return dynamo.Vec3{}, dynamo.Malformed(element, attr, raw, "expected three numbers")
	}
	if len(vals) != 3 {
		return dynamo.Vec3{}, dynamo.Malformed(element, attr, raw, "expected three numbers, got %d", len(vals))
	}
	return dynamo.Vec3{vals[0], vals[1], vals[2]}, nil
}
