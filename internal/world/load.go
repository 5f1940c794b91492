package world

import (
	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

// LoadVehicle builds a vehicle from a <vehicle> node and adds it.
func (w *World) LoadVehicle(node confnode.Node) (*vehicle.Vehicle, error) {
	v, err := w.registry.Factory(w, node)
	if err != nil {
		return nil, err
	}
	if err := w.AddVehicle(v); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadVehicleText is LoadVehicle over XML or YAML text.
func (w *World) LoadVehicleText(text string) (*vehicle.Vehicle, error) {
	doc, err := confnode.Parse(text)
	if err != nil {
		return nil, err
	}
	defer doc.Release()

	return w.LoadVehicle(confnode.Find(doc.Root(), "vehicle"))
}

// LoadWorldText reads a <world> document:
//
//	<world timestep="0.01">
//	  <vehicle .../>
//	  ...
//	</world>
//
// A bare <vehicle> document is accepted as a world of one. Either every
// vehicle is added or none is.
func (w *World) LoadWorldText(text string) error {
	doc, err := confnode.Parse(text)
	if err != nil {
		return err
	}
	defer doc.Release()

	root := doc.Root()
	var nodes []confnode.Node
	switch root.Tag() {
	case "world":
		nodes = confnode.ChildrenByTag(root, "vehicle")
	case "vehicle":
		nodes = []confnode.Node{root}
	default:
		return dynamo.Malformed(root.Tag(), "", "", "expected <world> or <vehicle> root")
	}

	dt := w.cfg.Dt
	if root.Tag() == "world" {
		if dt, err = confnode.FloatOr(root, "timestep", w.cfg.Dt); err != nil {
			return err
		}
		if dt <= 0 {
			return dynamo.Malformed("world", "timestep", "", "must be positive")
		}
		if dt != w.cfg.Dt && w.step > 0 {
			return dynamo.Malformed("world", "timestep", "", "cannot change the time step of a running world")
		}
	}

	built := make([]*vehicle.Vehicle, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		v, err := w.registry.Factory(w, n)
		if err != nil {
			return err
		}
		if seen[v.Name()] || w.byName[v.Name()] != nil {
			return dynamo.Malformed("vehicle", "name", v.Name(), "duplicate vehicle name")
		}
		seen[v.Name()] = true
		built = append(built, v)
	}

	w.cfg.Dt = dt
	for _, v := range built {
		if err := w.AddVehicle(v); err != nil {
			return err
		}
	}
	w.log.Info().Int("vehicles", len(built)).Float64("dt", dt).Msg("world loaded")
	return nil
}
