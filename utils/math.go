package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func DegreeToRadiansV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(math.Pi / 180)
}

// input in degrees, applied in x, y, z order
func EulerToQuat(v mgl32.Vec3) (q mgl32.Quat) {
	half := DegreeToRadiansV3(v).Mul(0.5)
	x := float64(half[0])
	y := float64(half[1])
	z := float64(half[2])

	sx := math.Sin(x)
	cx := math.Cos(x)
	sy := math.Sin(y)
	cy := math.Cos(y)
	sz := math.Sin(z)
	cz := math.Cos(z)

	q.V[0] = float32(sx*cy*cz - cx*sy*sz)
	q.V[1] = float32(cx*sy*cz + sx*cy*sz)
	q.V[2] = float32(cx*cy*sz - sx*sy*cz)
	q.W = float32(cx*cy*cz + sx*sy*sz)

	return q.Normalize()
}

// TRS composes translation * rotation * scale. A zero scale is read as 1.
func TRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	if r == (mgl32.Quat{}) {
		r = mgl32.QuatIdent()
	}
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}
