package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rapp-project/naomotion/utils"
)

// Transform is a 4x4 homogeneous transformation matrix. Backends report chain
// end-effector poses in this form.
type Transform struct {
	mat mgl64.Mat4
}

// NewTransform builds a transform from a rotation quaternion and a
// translation vector.
func NewTransform(rotation quat.Number, translation r3.Vector) Transform {
	if rotation == (quat.Number{}) {
		rotation = quat.Number{Real: 1}
	}
	if length := quat.Abs(rotation); length != 1 {
		rotation = quat.Scale(1/length, rotation)
	}
	m := mgl64.Quat{
		W: rotation.Real,
		V: mgl64.Vec3{rotation.Imag, rotation.Jmag, rotation.Kmag},
	}.Mat4()
	m.SetCol(3, mgl64.Vec4{translation.X, translation.Y, translation.Z, 1})
	return Transform{mat: m}
}

// NewTransformFromPose converts a 3D pose to its homogeneous matrix form.
func NewTransformFromPose(p Pose3D) Transform {
	return NewTransform(p.Orientation(), p.Point())
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return Transform{mat: mgl64.Ident4()}
}

// Compose returns t * other, i.e. other applied in t's frame.
func (t Transform) Compose(other Transform) Transform {
	return Transform{mat: t.mat.Mul4(other.mat)}
}

// Invert returns the rigid inverse of the transform.
func (t Transform) Invert() Transform {
	rotT := mgl64.Mat3FromRows(
		mgl64.Vec3{t.mat.At(0, 0), t.mat.At(1, 0), t.mat.At(2, 0)},
		mgl64.Vec3{t.mat.At(0, 1), t.mat.At(1, 1), t.mat.At(2, 1)},
		mgl64.Vec3{t.mat.At(0, 2), t.mat.At(1, 2), t.mat.At(2, 2)},
	)
	trans := mgl64.Vec3{t.mat.At(0, 3), t.mat.At(1, 3), t.mat.At(2, 3)}
	inv := rotT.Mat4()
	negated := rotT.Mul3x1(trans).Mul(-1)
	inv.SetCol(3, mgl64.Vec4{negated.X(), negated.Y(), negated.Z(), 1})
	return Transform{mat: inv}
}

// ToPose converts the transform back to a point plus quaternion pose.
func (t Transform) ToPose() Pose3D {
	q := mgl64.Mat4ToQuat(t.mat)
	return NewPose3D(
		r3.Vector{X: t.mat.At(0, 3), Y: t.mat.At(1, 3), Z: t.mat.At(2, 3)},
		quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()},
	)
}

// At returns the matrix element at row, col.
func (t Transform) At(row, col int) float64 {
	return t.mat.At(row, col)
}

// Mat returns the underlying 4x4 matrix.
func (t Transform) Mat() mgl64.Mat4 {
	return t.mat
}

// AlmostEqual returns whether two transforms match elementwise within epsilon.
func (t Transform) AlmostEqual(other Transform, epsilon float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !utils.Float64AlmostEqual(t.mat.At(i, j), other.mat.At(i, j), epsilon) {
				return false
			}
		}
	}
	return true
}
