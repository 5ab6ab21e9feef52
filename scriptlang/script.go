package scriptlang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/scene"
	"github.com/mogaika/scenegraph/utils"
)

type Instruction interface {
	instructionMark()
}

// Opcode is one component line: "T:", "R:" or "S:", an optional quoted
// name, then x y z (and the angle in radians for rotations).
type Opcode struct {
	Kind    scene.Kind
	Name    string
	Values  []float32
	Comment string
}

var opLetters = map[scene.Kind]string{
	scene.KindTranslate: "T",
	scene.KindRotate:    "R",
	scene.KindScale:     "S",
}

func valuesCount(kind scene.Kind) int {
	if kind == scene.KindRotate {
		return 4
	}
	return 3
}

func (op *Opcode) check() error {
	if want := valuesCount(op.Kind); len(op.Values) != want {
		return errors.Errorf("%s: expects %d values, got %d", opLetters[op.Kind], want, len(op.Values))
	}
	return nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func (op *Opcode) String() string {
	s := opLetters[op.Kind] + ":"
	if op.Name != "" {
		s += " " + strconv.Quote(op.Name)
	}
	for _, v := range op.Values {
		s += " " + formatFloat(v)
	}
	return s
}

// Component creates an unattached component described by op.
func (op *Opcode) Component() (scene.Op, error) {
	if err := op.check(); err != nil {
		return nil, err
	}
	v := mgl32.Vec3{op.Values[0], op.Values[1], op.Values[2]}
	switch op.Kind {
	case scene.KindTranslate:
		return scene.NewTranslate(op.Name, v), nil
	case scene.KindRotate:
		return scene.NewRotate(op.Name, v, op.Values[3]), nil
	case scene.KindScale:
		return scene.NewScale(op.Name, v), nil
	}
	return nil, errors.Errorf("unsupported kind %v", op.Kind)
}

func (op *Opcode) instructionMark() {}

// Label opens a compound; the following opcodes become its components.
type Label struct {
	Name    string
	Comment string
}

func (l *Label) String() string {
	return "$" + l.Name
}

func (l *Label) GoString() string {
	return fmt.Sprintf("label %q", l.String())
}

func (l *Label) instructionMark() {}

// Build turns parsed instructions into compounds, one per label.
// Components declared without a name get a generated one.
func Build(instructions []Instruction) ([]*scene.Compound, error) {
	var names utils.RandomNameGenerator
	for _, instruction := range instructions {
		if op, ok := instruction.(*Opcode); ok && op.Name != "" {
			names.Reserve(op.Name)
		}
	}

	var result []*scene.Compound
	var current *scene.Compound
	for i, instruction := range instructions {
		switch v := instruction.(type) {
		case *Label:
			current = scene.NewCompound(v.Name)
			result = append(result, current)
		case *Opcode:
			if current == nil {
				return nil, errors.Errorf("instruction %d (%v) outside of a compound", i, v)
			}
			named := *v
			if named.Name == "" {
				named.Name = names.RandomName()
			}
			c, err := named.Component()
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
			if err := current.AddComponent(c); err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
		default:
			panic(instruction)
		}
	}
	return result, nil
}

// Instructions describes ct as a label followed by one opcode per
// component.
func Instructions(ct *scene.Compound) []Instruction {
	result := make([]Instruction, 0, ct.Len()+1)
	result = append(result, &Label{Name: ct.Name()})
	for _, c := range ct.Components() {
		p := c.Payload()
		op := &Opcode{Kind: c.Kind(), Name: c.Name()}
		op.Values = append(op.Values, p[:valuesCount(c.Kind())]...)
		result = append(result, op)
	}
	return result
}

func RenderScriptLines(instructions []Instruction) []string {
	result := make([]string, 0, len(instructions))
	for _, instruction := range instructions {
		switch v := instruction.(type) {
		case *Opcode:
			if v.Comment == "" {
				result = append(result, v.String())
			} else {
				result = append(result, fmt.Sprintf("%-24s // %s", v.String(), v.Comment))
			}
		case *Label:
			if v.Comment == "" {
				result = append(result, v.String())
			} else {
				result = append(result, fmt.Sprintf("%-24s // %s", v.String(), v.Comment))
			}
		default:
			panic(instruction)
		}
	}
	return result
}

func RenderScript(instructions []Instruction) string {
	return strings.Join(RenderScriptLines(instructions), "\n")
}

func RenderCompound(ct *scene.Compound) string {
	return RenderScript(Instructions(ct))
}
