package utils

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestEulerRoundTrip(t *testing.T) {
	var tests = []mgl32.Vec3{
		{0, 0, 0},
		{90, 0, 0},
		{0, 45, 0},
		{10, 20, 30},
		{-35, 60, 170},
	}
	for _, deg := range tests {
		got := RadiansToDegreeV3(QuatToEuler(EulerToQuat(deg)))
		if !got.ApproxEqualThreshold(deg, 1e-3) {
			t.Errorf("euler %v -> %v", deg, got)
		}
	}
}

func TestQuatToAxisAngle(t *testing.T) {
	axis, angle := QuatToAxisAngle(mgl32.QuatRotate(1.25, mgl32.Vec3{0, 1, 0}))
	if !axis.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) || !mgl32.FloatEqualThreshold(angle, 1.25, 1e-5) {
		t.Errorf("got axis %v angle %v", axis, angle)
	}

	axis, angle = QuatToAxisAngle(mgl32.QuatIdent())
	if angle != 0 || axis != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("identity gave axis %v angle %v", axis, angle)
	}
}

func TestAxisAngleToEuler(t *testing.T) {
	var tests = []struct {
		axis  mgl32.Vec3
		angle float32
		want  mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 2}, math.Pi / 2, mgl32.Vec3{0, 0, 90}},
		{mgl32.Vec3{1, 0, 0}, -math.Pi / 4, mgl32.Vec3{-45, 0, 0}},
		{mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{}},
		{mgl32.Vec3{}, 1, mgl32.Vec3{}},
	}
	for _, tc := range tests {
		got := AxisAngleToEuler(tc.axis, tc.angle)
		if !got.ApproxEqualThreshold(tc.want, 1e-3) {
			t.Errorf("%v %v: got %v, want %v", tc.axis, tc.angle, got, tc.want)
		}
	}
}
