package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// result in radians (roll x, pitch y, yaw z)
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))

	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = math.Pi / 2
		if sinp < 0 {
			e[1] *= -1
		}
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

func DegreeToRadiansV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(math.Pi / 180.0)
}

func RadiansToDegreeV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(180.0 / math.Pi)
}

// input in degrees, applied x first, then y, then z
func EulerToQuat(v mgl32.Vec3) mgl32.Quat {
	r := DegreeToRadiansV3(v)
	return mgl32.AnglesToQuat(r[2], r[1], r[0], mgl32.ZYX).Normalize()
}

// QuatToAxisAngle returns a unit axis and an angle in radians.
// The identity rotation maps to the x axis with a zero angle.
func QuatToAxisAngle(q mgl32.Quat) (mgl32.Vec3, float32) {
	q = q.Normalize()
	w := math.Max(-1, math.Min(1, float64(q.W)))
	s := math.Sqrt(1 - w*w)
	if s < 1e-6 {
		return mgl32.Vec3{1, 0, 0}, 0
	}
	return q.V.Mul(float32(1 / s)), float32(2 * math.Acos(w))
}

// AxisAngleToEuler returns degrees (x, y, z). A zero axis is no rotation.
func AxisAngleToEuler(axis mgl32.Vec3, angle float32) mgl32.Vec3 {
	if axis.Len() == 0 {
		return mgl32.Vec3{}
	}
	return RadiansToDegreeV3(QuatToEuler(mgl32.QuatRotate(angle, axis.Normalize())))
}
