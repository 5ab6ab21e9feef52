package scenefile

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/scene"
)

// Apply copies the transform values of src onto the nodes of dst with
// the same names. Components are matched by name: a changed value goes
// through the typed setter, a kind change replaces the slot, and a new
// component is appended. Only changed components trigger synchronization.
// Nodes of src missing from dst are an error; dst keeps its hierarchy.
func Apply(dst, src *Scene) (Changes, error) {
	var changes Changes
	for _, name := range src.order {
		target, ok := dst.nodes[name]
		if !ok {
			return changes, errors.Errorf("node %q is not in scene %q", name, dst.Name)
		}

		switch from := src.nodes[name].(type) {
		case *scene.MatrixTransform:
			to, ok := target.(*scene.MatrixTransform)
			if !ok {
				return changes, errors.Errorf("node %q changed type", name)
			}
			if to.LocalMatrix() != from.LocalMatrix() {
				to.SetMatrix(from.LocalMatrix())
				changes.Count++
			}
		case *scene.Compound:
			to, ok := target.(*scene.Compound)
			if !ok {
				return changes, errors.Errorf("node %q changed type", name)
			}
			n, err := applyCompound(to, from)
			changes.Count += n
			if n != 0 {
				changes.Compounds = append(changes.Compounds, to)
			}
			if err != nil {
				return changes, errors.Wrapf(err, "node %q", name)
			}
		}
	}
	return changes, nil
}

// Changes is the outcome of Apply. Compounds lists, in declaration
// order, the compounds whose mirror was rewritten.
type Changes struct {
	Count     int
	Compounds []*scene.Compound
}

func applyCompound(dst, src *scene.Compound) (int, error) {
	changes := 0
	for i, c := range src.Components() {
		old, ok := dst.Find(c.Name())
		if !ok {
			if err := dst.AddComponent(c.Clone()); err != nil {
				return changes, err
			}
			changes++
			continue
		}
		if old.Kind() != c.Kind() {
			if err := dst.SetComponent(dst.IndexOf(old), c.Clone()); err != nil {
				return changes, err
			}
			changes++
			continue
		}
		if old.Payload() == c.Payload() {
			continue
		}
		if dst.IndexOf(old) != i {
			log.Printf("[scenefile] %q: component %q moved, keeping old position", dst.Name(), c.Name())
		}
		setPayload(old, c.Payload())
		changes++
	}
	return changes, nil
}

func setPayload(c *scene.Component, p mgl32.Vec4) {
	if t, ok := c.AsTranslate(); ok {
		t.SetValue(p.Vec3())
	} else if r, ok := c.AsRotate(); ok {
		r.SetAxis(p.Vec3())
		r.SetAngle(p[3])
	} else if s, ok := c.AsScale(); ok {
		s.SetValue(p.Vec3())
	}
}
