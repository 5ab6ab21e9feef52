package scene

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/config"
	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/utils"
)

// Compound is a transform node whose local matrix is the ordered
// composition of its components.
//
// The mirror is Uninitialized until InitializeMirror. After that every
// change (component setter, AddComponent, SetComponent) rewrites all
// slots, sets the dirty flag and uploads to the bound allocation before
// returning.
type Compound struct {
	Node

	components []*Component

	ctx    *gpu.Context
	mirror *Mirror
	alloc  gpu.Allocation
}

func NewCompound(name string) *Compound {
	return &Compound{Node: newNode(name)}
}

func (ct *Compound) AddChild(child Transform) error {
	return ct.addChild(ct, child)
}

func (ct *Compound) Len() int {
	return len(ct.components)
}

func (ct *Compound) Component(i int) *Component {
	if i < 0 || i >= len(ct.components) {
		return nil
	}
	return ct.components[i]
}

func (ct *Compound) Components() []*Component {
	return append([]*Component(nil), ct.components...)
}

// Find returns the first component with the given name.
func (ct *Compound) Find(name string) (*Component, bool) {
	for _, c := range ct.components {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// IndexOf returns the slot of c or -1.
func (ct *Compound) IndexOf(c *Component) int {
	for i, o := range ct.components {
		if o == c {
			return i
		}
	}
	return -1
}

func claim(op Op) (*Component, error) {
	if op == nil {
		return nil, ErrNilComponent
	}
	c := op.Base()
	if c == nil {
		return nil, ErrNilComponent
	}
	if c.owned {
		return nil, errors.Wrapf(ErrOwnershipConflict, "component %q", c.name)
	}
	return c, nil
}

// AddComponent appends op and takes ownership of it. A component that
// already belongs to a compound is rejected and nothing changes.
func (ct *Compound) AddComponent(op Op) error {
	c, err := claim(op)
	if err != nil {
		return err
	}
	c.attach(ct.componentChanged)
	ct.components = append(ct.components, c)
	return ct.changed()
}

// SetComponent replaces the component at index. The previous occupant is
// detached: its setters no longer reach this compound, and it still can't
// be added anywhere else.
func (ct *Compound) SetComponent(index int, op Op) error {
	c, err := claim(op)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(ct.components) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d in %q", index, len(ct.components), ct.name)
	}
	ct.components[index].detach()
	c.attach(ct.componentChanged)
	ct.components[index] = c
	return ct.changed()
}

// InitializeMirror materializes the mirror in ctx: one slot per component
// plus the terminator, all populated, dirty set, and the compound's own
// name interned. Calling it again rebuilds from scratch.
func (ct *Compound) InitializeMirror(ctx *gpu.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	ct.ctx = ctx
	ct.mirror = &Mirror{}
	ct.fill()
	ct.mirror.Name = ctx.InternString(ct.name)
	return nil
}

// Materialized reports whether InitializeMirror has run.
func (ct *Compound) Materialized() bool {
	return ct.mirror != nil
}

// Mirror returns the current mirror, nil before InitializeMirror.
func (ct *Compound) Mirror() *Mirror {
	return ct.mirror
}

func (ct *Compound) Context() *gpu.Context {
	return ct.ctx
}

func (ct *Compound) Allocation() gpu.Allocation {
	return ct.alloc
}

// Dirty reports whether the mirror changed since the last ClearDirty.
func (ct *Compound) Dirty() bool {
	return ct.mirror != nil && ct.mirror.IsDirty != 0
}

// ClearDirty is called by the consumer once it has picked up the mirror.
func (ct *Compound) ClearDirty() {
	if ct.mirror != nil {
		ct.mirror.IsDirty = 0
	}
}

// Bind attaches an external buffer. A materialized mirror is pushed to it
// right away; otherwise the first push happens on the first Synchronize
// after InitializeMirror.
func (ct *Compound) Bind(alloc gpu.Allocation) error {
	ct.alloc = alloc
	if ct.mirror == nil || alloc == nil {
		return nil
	}
	return ct.upload()
}

// BindAllocation allocates a buffer for the mirror from the context the
// compound was materialized in and binds it.
func (ct *Compound) BindAllocation() error {
	if ct.mirror == nil {
		return errors.Wrapf(ErrNotMaterialized, "bind %q", ct.name)
	}
	alloc, err := ct.ctx.Allocate(EncodedSize(ct.mirror.Slots()))
	if err != nil {
		return errors.Wrapf(err, "bind %q", ct.name)
	}
	return ct.Bind(alloc)
}

// Synchronize rewrites every mirror slot from the component list, sets
// the dirty flag and pushes the record to the bound allocation. It does
// nothing before InitializeMirror.
func (ct *Compound) Synchronize() error {
	if ct.mirror == nil {
		return nil
	}
	ct.fill()
	if config.GetTraceSync() {
		log.Printf("[scene] %q synchronized", ct.name)
		utils.LogDump(ct.mirror)
	}
	if ct.alloc == nil {
		return nil
	}
	return ct.upload()
}

func (ct *Compound) fill() {
	n := len(ct.components)
	m := ct.mirror
	m.resize(n + 1)
	for i, c := range ct.components {
		m.Payloads[i] = c.value
		m.Kinds[i] = c.kind
		m.Names[i] = ct.ctx.InternString(c.name)
	}
	m.Payloads[n] = mgl32.Vec4{}
	m.Kinds[n] = KindNone
	m.Names[n] = gpu.NullHandle
	m.IsDirty = 1
}

func (ct *Compound) upload() error {
	if err := ct.alloc.Set(ct.mirror.Encode(), 0); err != nil {
		return errors.Wrapf(err, "upload %q mirror", ct.name)
	}
	return nil
}

func (ct *Compound) changed() error {
	ct.stale = true
	return ct.Synchronize()
}

func (ct *Compound) componentChanged() {
	if err := ct.changed(); err != nil {
		log.Printf("[scene] %v", err)
	}
}

func (ct *Compound) updateLocal() bool {
	if ct.mirror != nil && ct.mirror.IsDirty != 0 {
		ct.local = Evaluate(ct.mirror)
		ct.mirror.IsDirty = 0
		ct.stale = false
		return true
	}
	if !ct.stale {
		return false
	}
	ct.local = EvaluateComponents(ct.components)
	ct.stale = false
	return true
}
