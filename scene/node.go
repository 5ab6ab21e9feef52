package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Transform is a node of the hierarchy. The set of implementations is
// closed: Compound and MatrixTransform.
type Transform interface {
	base() *Node
	// updateLocal refreshes the local matrix and reports whether it changed.
	updateLocal() bool
}

// Node is the hierarchy part shared by every transform.
type Node struct {
	name     string
	parent   Transform
	children []Transform

	local  mgl32.Mat4
	global mgl32.Mat4
	stale  bool
}

func newNode(name string) Node {
	return Node{
		name:   name,
		local:  mgl32.Ident4(),
		global: mgl32.Ident4(),
		stale:  true,
	}
}

func (n *Node) base() *Node { return n }

func (n *Node) Name() string { return n.name }

func (n *Node) Parent() Transform { return n.parent }

func (n *Node) Children() []Transform {
	return append([]Transform(nil), n.children...)
}

func (n *Node) LocalMatrix() mgl32.Mat4 { return n.local }

func (n *Node) GlobalMatrix() mgl32.Mat4 { return n.global }

func (n *Node) addChild(self, child Transform) error {
	cn := child.base()
	if cn.parent != nil {
		return errors.Wrapf(ErrAlreadyParented, "%q under %q", cn.name, n.name)
	}
	for p := self; p != nil; p = p.base().parent {
		if p.base() == cn {
			return errors.Wrapf(ErrCycle, "%q under %q", cn.name, n.name)
		}
	}
	cn.parent = self
	cn.stale = true
	n.children = append(n.children, child)
	return nil
}

// MatrixTransform is a node with an explicitly set local matrix.
type MatrixTransform struct {
	Node
}

func NewMatrixTransform(name string, m mgl32.Mat4) *MatrixTransform {
	mt := &MatrixTransform{Node: newNode(name)}
	mt.local = m
	return mt
}

func (mt *MatrixTransform) SetMatrix(m mgl32.Mat4) {
	mt.local = m
	mt.stale = true
}

func (mt *MatrixTransform) AddChild(child Transform) error {
	return mt.addChild(mt, child)
}

func (mt *MatrixTransform) updateLocal() bool {
	changed := mt.stale
	mt.stale = false
	return changed
}

// Update brings local and global matrices of t and its subtree up to
// date. Globals are recomputed only below nodes whose local matrix or
// ancestor changed.
func Update(t Transform, parentGlobal mgl32.Mat4, parentChanged bool) {
	n := t.base()
	changed := t.updateLocal() || parentChanged
	if changed {
		n.global = parentGlobal.Mul4(n.local)
	}
	for _, child := range n.children {
		Update(child, n.global, changed)
	}
}

// UpdateRoots runs Update for every root with an identity parent.
func UpdateRoots(roots ...Transform) {
	for _, root := range roots {
		Update(root, mgl32.Ident4(), false)
	}
}

// Walk visits t and its subtree depth-first, parents before children.
func Walk(t Transform, fn func(t Transform, depth int)) {
	walk(t, 0, fn)
}

func walk(t Transform, depth int, fn func(t Transform, depth int)) {
	fn(t, depth)
	for _, child := range t.base().children {
		walk(child, depth+1, fn)
	}
}

// NodeOf exposes the hierarchy data of any transform.
func NodeOf(t Transform) *Node {
	return t.base()
}
