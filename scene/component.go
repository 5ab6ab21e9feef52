package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Component is one transform operation: a kind tag, a display name and a
// 4-wide payload. Translate and scale use xyz; rotate stores the axis in
// xyz and the angle (radians) in w.
//
// A component belongs to at most one Compound for its whole lifetime.
// Once attached, notify routes every edit back to that compound. The
// handle is dropped when the component is replaced, but the component
// stays owned and can't be attached anywhere else.
type Component struct {
	name  string
	kind  Kind
	value mgl32.Vec4

	owned  bool
	notify func()
}

// Op is implemented by the typed component views and by *Component.
type Op interface {
	Base() *Component
}

func (c *Component) Base() *Component { return c }

func (c *Component) Name() string { return c.name }

func (c *Component) Kind() Kind { return c.kind }

func (c *Component) Payload() mgl32.Vec4 { return c.value }

// Attached reports whether the component was ever added to a compound.
func (c *Component) Attached() bool { return c.owned }

// Clone returns an unattached copy with the same name, kind and payload.
func (c *Component) Clone() *Component {
	return &Component{name: c.name, kind: c.kind, value: c.value}
}

func (c *Component) AsTranslate() (Translate, bool) {
	return Translate{c}, c.kind == KindTranslate
}

func (c *Component) AsRotate() (Rotate, bool) {
	return Rotate{c}, c.kind == KindRotate
}

func (c *Component) AsScale() (Scale, bool) {
	return Scale{c}, c.kind == KindScale
}

func (c *Component) attach(notify func()) {
	c.owned = true
	c.notify = notify
}

func (c *Component) detach() {
	c.notify = nil
}

func (c *Component) changed() {
	if c.notify != nil {
		c.notify()
	}
}

func (c *Component) setXYZ(v mgl32.Vec3) {
	c.value[0], c.value[1], c.value[2] = v[0], v[1], v[2]
	c.changed()
}

func newComponent(name string, kind Kind, value mgl32.Vec4) *Component {
	return &Component{name: name, kind: kind, value: value}
}

type Translate struct{ *Component }

func NewTranslate(name string, v mgl32.Vec3) Translate {
	return Translate{newComponent(name, KindTranslate, v.Vec4(0))}
}

func (t Translate) Value() mgl32.Vec3     { return t.value.Vec3() }
func (t Translate) SetValue(v mgl32.Vec3) { t.setXYZ(v) }

type Rotate struct{ *Component }

func NewRotate(name string, axis mgl32.Vec3, angle float32) Rotate {
	return Rotate{newComponent(name, KindRotate, axis.Vec4(angle))}
}

func (r Rotate) Axis() mgl32.Vec3     { return r.value.Vec3() }
func (r Rotate) SetAxis(v mgl32.Vec3) { r.setXYZ(v) }
func (r Rotate) Angle() float32       { return r.value[3] }

func (r Rotate) SetAngle(angle float32) {
	r.value[3] = angle
	r.changed()
}

type Scale struct{ *Component }

func NewScale(name string, v mgl32.Vec3) Scale {
	return Scale{newComponent(name, KindScale, v.Vec4(0))}
}

func (s Scale) Value() mgl32.Vec3     { return s.value.Vec3() }
func (s Scale) SetValue(v mgl32.Vec3) { s.setXYZ(v) }
