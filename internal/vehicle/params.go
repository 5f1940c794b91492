package vehicle

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
)

var vehicleCount atomic.Int64

func defaultName() string {
	return fmt.Sprintf("veh%d", vehicleCount.Add(1))
}

// LoadParams reads the common vehicle attributes and hands the <dynamics>
// element to the model:
//
//	name  optional, defaults to veh<N>; no path separators
//	pose  required, "x y yaw" with yaw in degrees
//	vel   optional, "vx vy w" with w in degrees per second
//
// Nothing is committed unless every value parses.
func (v *Vehicle) LoadParams(node confnode.Node) error {
	if v.chassis != nil {
		return fmt.Errorf("%w: %s: parameters loaded after the multibody system was created", dynamo.ErrContractViolation, v.name)
	}
	if node == nil {
		return dynamo.Malformed("vehicle", "", "", "no vehicle element")
	}

	name := v.name
	if raw, ok := node.Attr("name"); ok && strings.TrimSpace(raw) != "" {
		name = strings.TrimSpace(raw)
		if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return dynamo.Malformed("vehicle", "name", raw, "must not contain path separators")
		}
	}

	pose, err := confnode.Triple(node, "pose")
	if err != nil {
		return err
	}
	vel, err := confnode.TripleOr(node, "vel", dynamo.Vec3{})
	if err != nil {
		return err
	}

	dyn, err := confnode.MustChild(node, "dynamics")
	if err != nil {
		return err
	}
	if err := v.model.LoadDynamicsParams(dyn); err != nil {
		return err
	}

	if name == "" {
		name = defaultName()
	}
	v.name = name
	v.q = dynamo.Vec3{pose[0], pose[1], dynamo.Deg2Rad(pose[2])}
	v.dq = dynamo.Vec3{vel[0], vel[1], dynamo.Deg2Rad(vel[2])}
	return nil
}

// LoadParamsFromText is LoadParams over the first <vehicle> element of text.
func (v *Vehicle) LoadParamsFromText(text string) error {
	doc, err := confnode.Parse(text)
	if err != nil {
		return err
	}
	defer doc.Release()

	return v.LoadParams(confnode.Find(doc.Root(), "vehicle"))
}
