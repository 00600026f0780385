package motion_test

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/rapp-project/naomotion/body"
	"github.com/rapp-project/naomotion/motion"
	"github.com/rapp-project/naomotion/motion/fake"
	"github.com/rapp-project/naomotion/spatialmath"
)

func newService(t *testing.T, variant body.Variant) (motion.Service, *fake.Backend) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	backend := fake.NewBackend(variant, logger)
	svc, err := motion.New(backend, logger)
	test.That(t, err, test.ShouldBeNil)
	return svc, backend
}

func TestNewRejectsBadInput(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := motion.New(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = motion.New(fake.NewBackend("H99", logger), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMoveJointValidation(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)

	// Mismatched sequence lengths never reach the backend.
	err := svc.MoveJoint(ctx, []string{"HeadYaw", "HeadPitch"}, []float64{0.1})
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, backend.CallCount("MoveJoints"), test.ShouldEqual, 0)

	// Unknown joint names are rejected locally.
	err = svc.MoveJoint(ctx, []string{"Tail"}, []float64{0.1})
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, backend.CallCount("MoveJoints"), test.ShouldEqual, 0)

	// Empty requests are malformed.
	err = svc.MoveJoint(ctx, nil, nil)
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)

	// Speed fractions outside [0, 1] are malformed.
	err = svc.MoveJointAtSpeed(ctx, []string{"HeadYaw"}, []float64{0.1}, 1.5)
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, backend.CallCount("MoveJoints"), test.ShouldEqual, 0)
}

func TestMoveJointVariantAvailability(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH21)

	err := svc.MoveJoint(ctx, []string{"LWristYaw"}, []float64{0.2})
	test.That(t, errors.Is(err, motion.ErrUnavailable), test.ShouldBeTrue)
	test.That(t, backend.CallCount("MoveJoints"), test.ShouldEqual, 0)

	// The same joint exists on H25.
	svc25, backend25 := newService(t, body.VariantH25)
	err = svc25.MoveJoint(ctx, []string{"LWristYaw"}, []float64{0.2})
	test.That(t, err, test.ShouldBeNil)
	angle, ok := backend25.JointAngle(body.LWristYaw)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, angle, test.ShouldEqual, 0.2)
}

func TestMoveJointCouplingPriority(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)

	err := svc.MoveJoint(ctx,
		[]string{"RHipYawPitch", "LHipYawPitch"},
		[]float64{0.4, -0.2},
	)
	test.That(t, err, test.ShouldBeNil)

	left, ok := backend.JointAngle(body.LHipYawPitch)
	test.That(t, ok, test.ShouldBeTrue)
	right, ok := backend.JointAngle(body.RHipYawPitch)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, left, test.ShouldEqual, -0.2)
	test.That(t, right, test.ShouldEqual, -0.2)
}

func TestMoveJointChainExpansion(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH21)

	err := svc.MoveJoint(ctx, []string{"Head", "LArm"}, []float64{0.3, -0.1})
	test.That(t, err, test.ShouldBeNil)

	for _, j := range []body.Joint{body.HeadYaw, body.HeadPitch} {
		angle, ok := backend.JointAngle(j)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, angle, test.ShouldEqual, 0.3)
	}
	// Chain expansion on H21 skips the joints the variant lacks.
	_, ok := backend.JointAngle(body.LWristYaw)
	test.That(t, ok, test.ShouldBeFalse)
	angle, ok := backend.JointAngle(body.LElbowRoll)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, angle, test.ShouldEqual, -0.1)
}

func TestTakePredefinedPosture(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)

	err := svc.TakePredefinedPosture(ctx, "Handstand", 0.5)
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, backend.CallCount("TakePosture"), test.ShouldEqual, 0)

	err = svc.TakePredefinedPosture(ctx, motion.PostureStand, -0.5)
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)

	err = svc.TakePredefinedPosture(ctx, motion.PostureStand, 0.8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, backend.Posture(), test.ShouldEqual, motion.PostureStand)
}

func TestRest(t *testing.T) {
	ctx := context.Background()

	t.Run("unsafe posture is rejected before the backend", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		err := svc.Rest(ctx, motion.PostureStand)
		test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
		test.That(t, backend.CallCount("TakePosture"), test.ShouldEqual, 0)
		test.That(t, backend.Stiff(), test.ShouldBeTrue)
	})

	t.Run("safe posture releases stiffness after completion", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		err := svc.Rest(ctx, motion.PostureSit)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, backend.Posture(), test.ShouldEqual, motion.PostureSit)
		test.That(t, backend.Stiff(), test.ShouldBeFalse)
	})

	t.Run("backend rejection keeps stiffness on", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		backend.SetRejectPosture(true)
		err := svc.Rest(ctx, motion.PostureCrouch)
		test.That(t, errors.Is(err, motion.ErrBackendRejected), test.ShouldBeTrue)
		test.That(t, backend.Stiff(), test.ShouldBeTrue)
		test.That(t, backend.CallCount("SetStiffness"), test.ShouldEqual, 0)
	})
}

func makePath(n int) []spatialmath.PoseStamped {
	now := time.Now()
	path := make([]spatialmath.PoseStamped, 0, n)
	for i := 0; i < n; i++ {
		pose := spatialmath.NewPose3DFromPlanar(spatialmath.NewPose(float64(i+1), 0, 0))
		path = append(path, spatialmath.NewPoseStamped(pose, uint64(i+1), now.Add(time.Duration(i)*time.Second)))
	}
	return path
}

func TestMoveAlongPath(t *testing.T) {
	ctx := context.Background()

	t.Run("empty path is malformed", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		err := svc.MoveAlongPath(ctx, nil)
		test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
		test.That(t, backend.CallCount("MovePathLeg"), test.ShouldEqual, 0)
	})

	t.Run("reaches the final waypoint", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		path := makePath(3)
		err := svc.MoveAlongPath(ctx, path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, backend.LegsDriven(), test.ShouldEqual, 3)

		got, err := svc.GlobalPose(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Pose.AlmostEqual(path[2].Pose, 1e-9), test.ShouldBeTrue)
	})

	t.Run("stops at the first obstacle", func(t *testing.T) {
		svc, backend := newService(t, body.VariantH25)
		backend.SetObstacleAtWaypoint(1)
		err := svc.MoveAlongPath(ctx, makePath(4))
		test.That(t, errors.Is(err, motion.ErrInterrupted), test.ShouldBeTrue)
		reached, ok := motion.PathProgress(err)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, reached, test.ShouldEqual, 1)
		// The remaining waypoints are never attempted.
		test.That(t, backend.LegsDriven(), test.ShouldEqual, 2)
	})
}

func TestMoveStopInterruptsBlockingCall(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)
	backend.SetMoveDuration(10 * time.Second)

	result := make(chan error, 1)
	go func() {
		result <- svc.MoveTo(ctx, 1, 0, 0)
	}()

	for backend.CallCount("MoveTo") == 0 {
		time.Sleep(time.Millisecond)
	}

	err := svc.MoveStop(ctx)
	test.That(t, err, test.ShouldBeNil)

	select {
	case err := <-result:
		test.That(t, errors.Is(err, motion.ErrInterrupted), test.ShouldBeTrue)
	case <-time.After(5 * time.Second):
		t.Fatal("blocking MoveTo did not return after MoveStop")
	}
}

func TestMoveVelIsNonBlocking(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)
	// Even with long simulated motions, velocity commands return on
	// acceptance.
	backend.SetMoveDuration(10 * time.Second)

	start := time.Now()
	err := svc.MoveVel(ctx, 0.1, 0, 0.2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, time.Since(start), test.ShouldBeLessThan, time.Second)

	x, y, theta := backend.Velocity()
	test.That(t, x, test.ShouldEqual, 0.1)
	test.That(t, y, test.ShouldEqual, 0.0)
	test.That(t, theta, test.ShouldEqual, 0.2)

	err = svc.MoveVelDiff(ctx, 0.3, -0.1)
	test.That(t, err, test.ShouldBeNil)
	x, y, theta = backend.Velocity()
	test.That(t, x, test.ShouldEqual, 0.3)
	test.That(t, y, test.ShouldEqual, 0.0)
	test.That(t, theta, test.ShouldEqual, -0.1)

	err = svc.MoveStop(ctx)
	test.That(t, err, test.ShouldBeNil)
	x, y, theta = backend.Velocity()
	test.That(t, x+y+theta, test.ShouldEqual, 0.0)
}

func TestGlobalPoseRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, body.VariantH25)

	want := spatialmath.NewPose(1.5, -0.75, 0.9)
	err := svc.SetGlobalPose(ctx, want)
	test.That(t, err, test.ShouldBeNil)

	got, err := svc.GlobalPose(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Pose.Planar().AlmostEqual(want, 1e-9), test.ShouldBeTrue)
	test.That(t, got.Seq, test.ShouldBeGreaterThan, 0)
}

func TestTransform(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)

	_, err := svc.Transform(ctx, "Torso", motion.SpaceTorso)
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, backend.CallCount("ChainTransform"), test.ShouldEqual, 0)

	tf, err := svc.Transform(ctx, body.ChainHead, motion.SpaceTorso)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.At(3, 3), test.ShouldEqual, 1.0)
	test.That(t, tf.At(2, 3), test.ShouldAlmostEqual, 0.21, 1e-9)

	// Backend-unsupported spaces surface as invalid arguments, never a
	// silent default.
	_, err = svc.Transform(ctx, body.ChainHead, motion.Space(42))
	test.That(t, errors.Is(err, motion.ErrInvalidArgument), test.ShouldBeTrue)
}

func TestBackendUnreachable(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)
	backend.SetUnreachable(true)

	err := svc.MoveTo(ctx, 1, 0, 0)
	test.That(t, errors.Is(err, motion.ErrBackendUnreachable), test.ShouldBeTrue)

	err = svc.MoveVel(ctx, 0.1, 0, 0)
	test.That(t, errors.Is(err, motion.ErrBackendUnreachable), test.ShouldBeTrue)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, body.VariantH25)

	test.That(t, svc.Close(ctx), test.ShouldBeNil)
	test.That(t, backend.Closed(), test.ShouldBeTrue)
	test.That(t, backend.CallCount("Stop"), test.ShouldEqual, 1)
}
