package scenefile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/scenegraph/gpu"
	"github.com/mogaika/scenegraph/scene"
	"github.com/mogaika/scenegraph/scriptlang"
	"github.com/mogaika/scenegraph/utils"
)

// File is the YAML layout of a scene description.
type File struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec describes one transform. A node with Matrix set becomes a
// MatrixTransform; otherwise it is a compound built from Transform and
// then Script, in that order.
type NodeSpec struct {
	Name      string     `yaml:"name"`
	Matrix    []float32  `yaml:"matrix,omitempty"`
	Transform []OpSpec   `yaml:"transform,omitempty"`
	Script    string     `yaml:"script,omitempty"`
	Children  []NodeSpec `yaml:"children,omitempty"`
}

// OpSpec holds exactly one of Translate, Rotate (with Angle in radians),
// Euler (degrees, applied x, y, z) or Scale.
type OpSpec struct {
	Name      string    `yaml:"name,omitempty"`
	Translate []float32 `yaml:"translate,omitempty"`
	Rotate    []float32 `yaml:"rotate,omitempty"`
	Angle     float32   `yaml:"angle,omitempty"`
	Euler     []float32 `yaml:"euler,omitempty"`
	Scale     []float32 `yaml:"scale,omitempty"`
}

type Scene struct {
	Name  string
	Roots []scene.Transform
	nodes map[string]scene.Transform
	order []string
}

func newScene(name string) *Scene {
	return &Scene{Name: name, nodes: make(map[string]scene.Transform)}
}

func (s *Scene) add(t scene.Transform) error {
	name := scene.NodeOf(t).Name()
	if _, exists := s.nodes[name]; exists {
		return errors.Errorf("duplicate node %q", name)
	}
	s.nodes[name] = t
	s.order = append(s.order, name)
	return nil
}

func (s *Scene) Lookup(name string) (scene.Transform, bool) {
	t, ok := s.nodes[name]
	return t, ok
}

func (s *Scene) Compound(name string) (*scene.Compound, bool) {
	ct, ok := s.nodes[name].(*scene.Compound)
	return ct, ok
}

// Names lists node names in declaration order, parents first.
func (s *Scene) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *Scene) Compounds() []*scene.Compound {
	var result []*scene.Compound
	for _, name := range s.order {
		if ct, ok := s.nodes[name].(*scene.Compound); ok {
			result = append(result, ct)
		}
	}
	return result
}

// Materialize initializes the mirror of every compound in ctx and, when
// ctx has a backend, binds a buffer to each of them.
func (s *Scene) Materialize(ctx *gpu.Context) error {
	for _, ct := range s.Compounds() {
		if err := ct.InitializeMirror(ctx); err != nil {
			return errors.Wrapf(err, "node %q", ct.Name())
		}
		if ctx.Backend() == nil {
			continue
		}
		if err := ct.BindAllocation(); err != nil {
			return errors.Wrapf(err, "node %q", ct.Name())
		}
	}
	return nil
}

// Update refreshes local and global matrices of the whole scene.
func (s *Scene) Update() {
	scene.UpdateRoots(s.Roots...)
}

// Load reads a YAML scene, or a transform script when the file has the
// .xf extension.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read scene")
	}

	if strings.ToLower(filepath.Ext(path)) == ".xf" {
		base := filepath.Base(path)
		s, err := ParseScript(strings.TrimSuffix(base, filepath.Ext(base)), data)
		return s, errors.Wrapf(err, "Failed to parse %q", path)
	}
	s, err := Parse(data)
	return s, errors.Wrapf(err, "Failed to parse %q", path)
}

// ParseScript builds a flat scene of root compounds from a transform script.
func ParseScript(name string, data []byte) (*Scene, error) {
	instructions, err := scriptlang.ParseScript(data)
	if err != nil {
		return nil, err
	}
	compounds, err := scriptlang.Build(instructions)
	if err != nil {
		return nil, err
	}
	s := newScene(name)
	for _, ct := range compounds {
		if err := s.add(ct); err != nil {
			return nil, err
		}
		s.Roots = append(s.Roots, ct)
	}
	return s, nil
}

func Parse(data []byte) (*Scene, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal")
	}
	return f.Build()
}

func (f *File) Build() (*Scene, error) {
	b := &builder{scene: newScene(f.Name)}
	for i := range f.Nodes {
		reserveNames(&b.names, &f.Nodes[i])
	}
	for i := range f.Nodes {
		t, err := b.node(&f.Nodes[i])
		if err != nil {
			return nil, err
		}
		b.scene.Roots = append(b.scene.Roots, t)
	}
	return b.scene, nil
}

type builder struct {
	scene *Scene
	names utils.RandomNameGenerator
}

func reserveNames(names *utils.RandomNameGenerator, spec *NodeSpec) {
	for _, op := range spec.Transform {
		if op.Name != "" {
			names.Reserve(op.Name)
		}
	}
	for i := range spec.Children {
		reserveNames(names, &spec.Children[i])
	}
}

func (b *builder) node(spec *NodeSpec) (scene.Transform, error) {
	if spec.Name == "" {
		return nil, errors.Errorf("node without name")
	}

	var t scene.Transform
	var addChild func(scene.Transform) error
	if spec.Matrix != nil {
		if len(spec.Transform) != 0 || spec.Script != "" {
			return nil, errors.Errorf("node %q: matrix can't be combined with components", spec.Name)
		}
		if len(spec.Matrix) != 16 {
			return nil, errors.Errorf("node %q: matrix has %d values, want 16", spec.Name, len(spec.Matrix))
		}
		var m mgl32.Mat4
		copy(m[:], spec.Matrix)
		mt := scene.NewMatrixTransform(spec.Name, m)
		t, addChild = mt, mt.AddChild
	} else {
		ct, err := b.compound(spec)
		if err != nil {
			return nil, err
		}
		t, addChild = ct, ct.AddChild
	}

	if err := b.scene.add(t); err != nil {
		return nil, err
	}
	for i := range spec.Children {
		child, err := b.node(&spec.Children[i])
		if err != nil {
			return nil, err
		}
		if err := addChild(child); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (b *builder) compound(spec *NodeSpec) (*scene.Compound, error) {
	ct := scene.NewCompound(spec.Name)
	for i, opSpec := range spec.Transform {
		name := opSpec.Name
		if name == "" {
			name = b.names.RandomName()
		}
		op, err := opSpec.component(name)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q transform %d", spec.Name, i)
		}
		if err := ct.AddComponent(op); err != nil {
			return nil, err
		}
	}

	if spec.Script != "" {
		instructions, err := scriptlang.ParseScript([]byte(spec.Script))
		if err != nil {
			return nil, errors.Wrapf(err, "node %q script", spec.Name)
		}
		for _, instruction := range instructions {
			opcode, ok := instruction.(*scriptlang.Opcode)
			if !ok {
				return nil, errors.Errorf("node %q script: labels are not allowed inside a node", spec.Name)
			}
			if opcode.Name == "" {
				opcode.Name = b.names.RandomName()
			}
			op, err := opcode.Component()
			if err != nil {
				return nil, errors.Wrapf(err, "node %q script", spec.Name)
			}
			if err := ct.AddComponent(op); err != nil {
				return nil, err
			}
		}
	}
	return ct, nil
}

func vec3(field string, v []float32) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, errors.Errorf("%s has %d values, want 3", field, len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

func (o *OpSpec) component(name string) (scene.Op, error) {
	set := 0
	for _, v := range [][]float32{o.Translate, o.Rotate, o.Euler, o.Scale} {
		if v != nil {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Errorf("component %q must have exactly one of translate, rotate, euler, scale", name)
	}

	switch {
	case o.Translate != nil:
		v, err := vec3("translate", o.Translate)
		if err != nil {
			return nil, err
		}
		return scene.NewTranslate(name, v), nil
	case o.Rotate != nil:
		v, err := vec3("rotate", o.Rotate)
		if err != nil {
			return nil, err
		}
		return scene.NewRotate(name, v, o.Angle), nil
	case o.Euler != nil:
		v, err := vec3("euler", o.Euler)
		if err != nil {
			return nil, err
		}
		axis, angle := utils.QuatToAxisAngle(utils.EulerToQuat(v))
		return scene.NewRotate(name, axis, angle), nil
	default:
		v, err := vec3("scale", o.Scale)
		if err != nil {
			return nil, err
		}
		return scene.NewScale(name, v), nil
	}
}
