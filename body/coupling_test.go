package body

import (
	"testing"

	"go.viam.com/test"
)

func TestCoupledWith(t *testing.T) {
	other, ok := CoupledWith(LHipYawPitch)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, other, test.ShouldEqual, RHipYawPitch)

	other, ok = CoupledWith(RHipYawPitch)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, other, test.ShouldEqual, LHipYawPitch)

	_, ok = CoupledWith(HeadYaw)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestResolveCouplingPriority(t *testing.T) {
	in := []JointCommand{
		{Joint: RHipYawPitch, Angle: 0.4, Speed: 0.5},
		{Joint: LHipYawPitch, Angle: -0.2, Speed: 0.5},
	}
	out := ResolveConflicts(in)
	test.That(t, len(out), test.ShouldEqual, 2)
	// LHipYawPitch holds priority regardless of input order.
	test.That(t, out[0].Joint, test.ShouldEqual, RHipYawPitch)
	test.That(t, out[0].Angle, test.ShouldEqual, -0.2)
	test.That(t, out[1].Joint, test.ShouldEqual, LHipYawPitch)
	test.That(t, out[1].Angle, test.ShouldEqual, -0.2)
}

func TestResolveIsIdempotent(t *testing.T) {
	in := []JointCommand{
		{Joint: LHipYawPitch, Angle: 0.3},
		{Joint: RHipYawPitch, Angle: 0.9},
		{Joint: HeadYaw, Angle: 1.0},
	}
	once := ResolveConflicts(in)
	twice := ResolveConflicts(once)
	test.That(t, twice, test.ShouldResemble, once)
}

func TestResolveLastWriteWins(t *testing.T) {
	in := []JointCommand{
		{Joint: HeadYaw, Angle: 0.1, Speed: 0.2},
		{Joint: HeadPitch, Angle: 0.5, Speed: 0.2},
		{Joint: HeadYaw, Angle: -0.7, Speed: 0.9},
	}
	out := ResolveConflicts(in)
	test.That(t, len(out), test.ShouldEqual, 2)
	test.That(t, out[0].Joint, test.ShouldEqual, HeadYaw)
	test.That(t, out[0].Angle, test.ShouldEqual, -0.7)
	test.That(t, out[0].Speed, test.ShouldEqual, 0.9)
	test.That(t, out[1].Joint, test.ShouldEqual, HeadPitch)
}

func TestResolveSingleCoupledJointPassesThrough(t *testing.T) {
	in := []JointCommand{{Joint: RHipYawPitch, Angle: 0.25}}
	out := ResolveConflicts(in)
	test.That(t, len(out), test.ShouldEqual, 1)
	test.That(t, out[0].Angle, test.ShouldEqual, 0.25)
}

func TestResolveEmpty(t *testing.T) {
	test.That(t, ResolveConflicts(nil), test.ShouldBeNil)
}
