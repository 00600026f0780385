// Package spatialmath defines the pose and transform math used by the motion
// facade. All operations are pure; nothing here touches a backend.
package spatialmath

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rapp-project/naomotion/utils"
)

// Pose is a planar rigid-body configuration (meters, radians) in some
// reference frame. It is an immutable value.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// NewPose creates a planar pose, normalizing theta to (-pi, pi].
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: utils.AngleNorm(theta)}
}

// Compose treats delta as expressed in p's frame and returns the resulting
// pose in p's parent frame.
func (p Pose) Compose(delta Pose) Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     p.X + delta.X*cos - delta.Y*sin,
		Y:     p.Y + delta.X*sin + delta.Y*cos,
		Theta: utils.AngleNorm(p.Theta + delta.Theta),
	}
}

// Invert returns the pose q such that p.Compose(q) is the origin.
func (p Pose) Invert() Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     -(p.X*cos + p.Y*sin),
		Y:     -(-p.X*sin + p.Y*cos),
		Theta: utils.AngleNorm(-p.Theta),
	}
}

// AlmostEqual returns whether the two poses match within epsilon on every
// component.
func (p Pose) AlmostEqual(other Pose, epsilon float64) bool {
	return utils.Float64AlmostEqual(p.X, other.X, epsilon) &&
		utils.Float64AlmostEqual(p.Y, other.Y, epsilon) &&
		utils.Float64AlmostEqual(utils.AngleNorm(p.Theta-other.Theta), 0, epsilon)
}

// Pose3D is a full 3D rigid-body configuration: a point plus a unit
// quaternion orientation. It is an immutable value.
type Pose3D struct {
	point       r3.Vector
	orientation quat.Number
}

// NewPose3D creates a 3D pose from a point and an orientation quaternion.
// A zero orientation is taken as the identity; anything else is normalized.
func NewPose3D(point r3.Vector, orientation quat.Number) Pose3D {
	if orientation == (quat.Number{}) {
		orientation = quat.Number{Real: 1}
	}
	if length := quat.Abs(orientation); length != 1 {
		orientation = quat.Scale(1/length, orientation)
	}
	return Pose3D{point: point, orientation: orientation}
}

// NewZeroPose3D returns the identity pose.
func NewZeroPose3D() Pose3D {
	return Pose3D{orientation: quat.Number{Real: 1}}
}

// NewPose3DFromPlanar lifts a planar pose into 3D as a rotation about Z at
// height zero.
func NewPose3DFromPlanar(p Pose) Pose3D {
	sin, cos := math.Sincos(p.Theta / 2)
	return Pose3D{
		point:       r3.Vector{X: p.X, Y: p.Y},
		orientation: quat.Number{Real: cos, Kmag: sin},
	}
}

// Point returns the translation component.
func (p Pose3D) Point() r3.Vector {
	return p.point
}

// Orientation returns the unit rotation quaternion.
func (p Pose3D) Orientation() quat.Number {
	return p.orientation
}

// Planar projects the pose onto the ground plane, keeping x, y and yaw.
func (p Pose3D) Planar() Pose {
	q := p.orientation
	yaw := math.Atan2(
		2*(q.Real*q.Kmag+q.Imag*q.Jmag),
		1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag),
	)
	return Pose{X: p.point.X, Y: p.point.Y, Theta: yaw}
}

// Compose returns the pose of b as if b were expressed in a's frame.
func Compose(a, b Pose3D) Pose3D {
	return poseFromDualQuat(dualquat.Mul(a.dualQuat(), b.dualQuat()))
}

// Invert returns the pose q such that Compose(p, q) is the identity.
func (p Pose3D) Invert() Pose3D {
	return poseFromDualQuat(dualquat.Inv(p.dualQuat()))
}

// AlmostEqual returns whether two poses coincide within epsilon, comparing
// translation componentwise and orientation up to sign.
func (p Pose3D) AlmostEqual(other Pose3D, epsilon float64) bool {
	if !utils.Float64AlmostEqual(p.point.X, other.point.X, epsilon) ||
		!utils.Float64AlmostEqual(p.point.Y, other.point.Y, epsilon) ||
		!utils.Float64AlmostEqual(p.point.Z, other.point.Z, epsilon) {
		return false
	}
	// q and -q describe the same rotation.
	dot := p.orientation.Real*other.orientation.Real +
		p.orientation.Imag*other.orientation.Imag +
		p.orientation.Jmag*other.orientation.Jmag +
		p.orientation.Kmag*other.orientation.Kmag
	return utils.Float64AlmostEqual(math.Abs(dot), 1, epsilon)
}

// dualQuat encodes the pose as a unit dual quaternion r + (t/2·r)ε.
func (p Pose3D) dualQuat() dualquat.Number {
	half := quat.Number{
		Imag: p.point.X / 2,
		Jmag: p.point.Y / 2,
		Kmag: p.point.Z / 2,
	}
	return dualquat.Number{
		Real: p.orientation,
		Dual: quat.Mul(half, p.orientation),
	}
}

// poseFromDualQuat recovers point and orientation from a unit dual
// quaternion. The translation falls out of d·d̄ whose dual part is exactly t.
func poseFromDualQuat(d dualquat.Number) Pose3D {
	if length := quat.Abs(d.Real); length != 1 {
		d.Real = quat.Scale(1/length, d.Real)
		d.Dual = quat.Scale(1/length, d.Dual)
	}
	tr := dualquat.Mul(d, dualquat.Conj(d))
	return Pose3D{
		point:       r3.Vector{X: tr.Dual.Imag, Y: tr.Dual.Jmag, Z: tr.Dual.Kmag},
		orientation: d.Real,
	}
}

// PoseStamped is a 3D pose with an ordering marker, used to build paths.
type PoseStamped struct {
	Pose  Pose3D
	Seq   uint64
	Stamp time.Time
}

// NewPoseStamped stamps a pose with a sequence number and timestamp.
func NewPoseStamped(pose Pose3D, seq uint64, stamp time.Time) PoseStamped {
	return PoseStamped{Pose: pose, Seq: seq, Stamp: stamp}
}
