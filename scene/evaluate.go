package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Evaluate composes the local matrix described by a mirror. Slot 0 is
// the outermost operation: the result is op0 * op1 * ... * opN.
func Evaluate(m *Mirror) mgl32.Mat4 {
	result := mgl32.Ident4()
	for i, kind := range m.Kinds {
		if kind == KindNone {
			break
		}
		result = result.Mul4(opMatrix(kind, m.Payloads[i]))
	}
	return result
}

// EvaluateComponents gives the same matrix as Evaluate on the mirror of
// the listed components.
func EvaluateComponents(components []*Component) mgl32.Mat4 {
	result := mgl32.Ident4()
	for _, c := range components {
		result = result.Mul4(opMatrix(c.kind, c.value))
	}
	return result
}

func opMatrix(kind Kind, v mgl32.Vec4) mgl32.Mat4 {
	switch kind {
	case KindTranslate:
		return mgl32.Translate3D(v[0], v[1], v[2])
	case KindRotate:
		axis := v.Vec3()
		if axis.Len() == 0 {
			return mgl32.Ident4()
		}
		return mgl32.HomogRotate3D(v[3], axis.Normalize())
	case KindScale:
		return mgl32.Scale3D(v[0], v[1], v[2])
	}
	return mgl32.Ident4()
}
