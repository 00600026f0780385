// Package fake provides an in-memory motion backend. It tracks pose, joint
// angles, posture and stiffness, simulates motion time on an injectable
// clock, and lets tests script obstacles, rejections and connection loss.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/rapp-project/naomotion/body"
	"github.com/rapp-project/naomotion/motion"
	"github.com/rapp-project/naomotion/spatialmath"
)

// ModelName is the name this backend registers under.
const ModelName = "fake"

// AttrConfig holds the fake backend's attributes.
type AttrConfig struct {
	// MoveDurationMs is how long each simulated motion takes.
	MoveDurationMs int `mapstructure:"move_duration_ms"`
	// ObstacleAtWaypoint makes path following report an obstacle on the leg
	// toward the given waypoint index. Negative means never.
	ObstacleAtWaypoint int `mapstructure:"obstacle_at_waypoint"`
}

func init() {
	motion.RegisterBackend(ModelName, func(ctx context.Context, cfg motion.Config, logger golog.Logger) (motion.Backend, error) {
		attrs := AttrConfig{ObstacleAtWaypoint: -1}
		if err := mapstructure.Decode(cfg.Attributes, &attrs); err != nil {
			return nil, errors.Wrap(err, "fake backend attributes")
		}
		b := NewBackend(body.Variant(cfg.Variant), logger)
		b.moveDuration = time.Duration(attrs.MoveDurationMs) * time.Millisecond
		b.obstacleAt = attrs.ObstacleAtWaypoint
		return b, nil
	})
}

var _ = motion.Backend(&Backend{})

// chainOffsets places each chain's end effector in the torso frame.
var chainOffsets = map[body.Chain]r3.Vector{
	body.ChainHead: {Z: 0.21},
	body.ChainLArm: {Y: 0.11, Z: 0.10},
	body.ChainRArm: {Y: -0.11, Z: 0.10},
	body.ChainLLeg: {Y: 0.05, Z: -0.33},
	body.ChainRLeg: {Y: -0.05, Z: -0.33},
}

// Backend is a fake motion backend.
type Backend struct {
	mu     sync.Mutex
	logger golog.Logger
	clk    clock.Clock

	variant      body.Variant
	moveDuration time.Duration

	globalPose spatialmath.Pose3D
	seq        uint64
	joints     map[body.Joint]float64
	velocity   [3]float64
	posture    motion.Posture
	stiff      bool

	legsDriven int
	obstacleAt int

	unreachable   bool
	rejectJoints  bool
	rejectPosture bool
	closed        bool

	calls map[string]int
}

// NewBackend creates a fake backend for the given body variant. Motions
// complete instantly unless a move duration is set.
func NewBackend(variant body.Variant, logger golog.Logger) *Backend {
	return &Backend{
		logger:     logger,
		clk:        clock.New(),
		variant:    variant,
		joints:     map[body.Joint]float64{},
		posture:    motion.PostureStandInit,
		stiff:      true,
		obstacleAt: -1,
		calls:      map[string]int{},
	}
}

// SetClock swaps the clock used to pace simulated motion.
func (b *Backend) SetClock(clk clock.Clock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clk = clk
}

// SetMoveDuration sets how long each simulated motion takes.
func (b *Backend) SetMoveDuration(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moveDuration = d
}

// SetUnreachable scripts loss of the backend connection.
func (b *Backend) SetUnreachable(unreachable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unreachable = unreachable
}

// SetObstacleAtWaypoint scripts an obstacle on the leg toward the given
// waypoint index. Negative means never.
func (b *Backend) SetObstacleAtWaypoint(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.obstacleAt = index
}

// SetRejectJoints scripts controller-level refusal of joint commands.
func (b *Backend) SetRejectJoints(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectJoints = reject
}

// SetRejectPosture scripts controller-level refusal of posture transitions.
func (b *Backend) SetRejectPosture(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectPosture = reject
}

// Variant reports the configured hardware variant.
func (b *Backend) Variant() body.Variant {
	return b.variant
}

func (b *Backend) record(method string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[method]++
	if b.closed || b.unreachable {
		return errors.Wrapf(motion.ErrBackendUnreachable, "fake backend %q", method)
	}
	return nil
}

// simulate waits out one motion on the backend clock, honoring cancellation.
func (b *Backend) simulate(ctx context.Context) error {
	b.mu.Lock()
	dur := b.moveDuration
	clk := b.clk
	b.mu.Unlock()
	if dur <= 0 {
		return ctx.Err()
	}
	timer := clk.Timer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MoveTo walks the simulated robot by (x, y, theta) in its own frame.
func (b *Backend) MoveTo(ctx context.Context, x, y, theta float64) error {
	if err := b.record("MoveTo"); err != nil {
		return err
	}
	if err := b.simulate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	moved := b.globalPose.Planar().Compose(spatialmath.NewPose(x, y, theta))
	b.globalPose = spatialmath.NewPose3DFromPlanar(moved)
	return nil
}

// MoveToward stores the commanded velocity and returns immediately.
func (b *Backend) MoveToward(ctx context.Context, x, y, theta float64) error {
	if err := b.record("MoveToward"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.velocity = [3]float64{x, y, theta}
	return nil
}

// Stop zeroes the commanded velocity.
func (b *Backend) Stop(ctx context.Context) error {
	if err := b.record("Stop"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.velocity = [3]float64{}
	return nil
}

// MoveJoints applies an already conflict-free command sequence. The shared
// hip motor moves both hip yaw joints together, mirroring the hardware.
func (b *Backend) MoveJoints(ctx context.Context, commands []body.JointCommand) error {
	if err := b.record("MoveJoints"); err != nil {
		return err
	}
	b.mu.Lock()
	reject := b.rejectJoints
	b.mu.Unlock()
	if reject {
		return errors.Wrap(motion.ErrBackendRejected, "joint command refused")
	}
	if err := b.simulate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cmd := range commands {
		b.joints[cmd.Joint] = cmd.Angle
		if twin, ok := body.CoupledWith(cmd.Joint); ok {
			b.joints[twin] = cmd.Angle
		}
	}
	return nil
}

// TakePosture transitions to the given posture.
func (b *Backend) TakePosture(ctx context.Context, posture motion.Posture, speed float64) error {
	if err := b.record("TakePosture"); err != nil {
		return err
	}
	b.mu.Lock()
	reject := b.rejectPosture
	b.mu.Unlock()
	if reject {
		return errors.Wrapf(motion.ErrBackendRejected, "posture %q refused", posture)
	}
	if err := b.simulate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posture = posture
	b.stiff = true
	return nil
}

// PointArm pretends to point an arm at the given point.
func (b *Backend) PointArm(ctx context.Context, x, y, z float64) error {
	if err := b.record("PointArm"); err != nil {
		return err
	}
	return b.simulate(ctx)
}

// LookAt pretends to point the camera at the given point.
func (b *Backend) LookAt(ctx context.Context, x, y, z float64) error {
	if err := b.record("LookAt"); err != nil {
		return err
	}
	return b.simulate(ctx)
}

// SetStiffness switches whole-body stiffness.
func (b *Backend) SetStiffness(ctx context.Context, stiff bool) error {
	if err := b.record("SetStiffness"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stiff = stiff
	return nil
}

// MovePathLeg drives toward one waypoint, reporting a scripted obstacle if
// one is due.
func (b *Backend) MovePathLeg(ctx context.Context, target spatialmath.PoseStamped) (motion.PathStatus, error) {
	if err := b.record("MovePathLeg"); err != nil {
		return motion.PathObstacle, err
	}
	b.mu.Lock()
	leg := b.legsDriven
	b.legsDriven++
	obstacle := b.obstacleAt >= 0 && leg == b.obstacleAt
	b.mu.Unlock()
	if obstacle {
		return motion.PathObstacle, nil
	}
	if err := b.simulate(ctx); err != nil {
		return motion.PathObstacle, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globalPose = target.Pose
	return motion.PathGoalReached, nil
}

// ChainTransform reports the chain's end-effector transform in the
// requested space. Only the three known spaces are supported.
func (b *Backend) ChainTransform(ctx context.Context, chain body.Chain, space motion.Space) (spatialmath.Transform, error) {
	if err := b.record("ChainTransform"); err != nil {
		return spatialmath.Transform{}, err
	}
	if space < motion.SpaceTorso || space > motion.SpaceRobot {
		return spatialmath.Transform{}, errors.Wrapf(motion.ErrInvalidArgument, "unsupported space %d", space)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	local := spatialmath.NewTransformFromPose(
		spatialmath.NewPose3D(chainOffsets[chain], b.globalPose.Orientation()))
	if space == motion.SpaceWorld {
		return spatialmath.NewTransformFromPose(b.globalPose).Compose(local), nil
	}
	return local, nil
}

// GlobalPose reports the simulated global pose estimate.
func (b *Backend) GlobalPose(ctx context.Context) (spatialmath.PoseStamped, error) {
	if err := b.record("GlobalPose"); err != nil {
		return spatialmath.PoseStamped{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return spatialmath.NewPoseStamped(b.globalPose, b.seq, b.clk.Now()), nil
}

// SetGlobalPose overrides the simulated global pose estimate.
func (b *Backend) SetGlobalPose(ctx context.Context, pose spatialmath.Pose) error {
	if err := b.record("SetGlobalPose"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globalPose = spatialmath.NewPose3DFromPlanar(pose)
	return nil
}

// Close marks the backend handle as torn down.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// JointAngle returns the simulated angle of a joint, if it was ever
// commanded.
func (b *Backend) JointAngle(joint body.Joint) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	angle, ok := b.joints[joint]
	return angle, ok
}

// Posture returns the currently held posture.
func (b *Backend) Posture() motion.Posture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.posture
}

// Stiff returns whether motor stiffness is on.
func (b *Backend) Stiff() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stiff
}

// Velocity returns the last commanded velocity.
func (b *Backend) Velocity() (x, y, theta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.velocity[0], b.velocity[1], b.velocity[2]
}

// LegsDriven returns how many path legs were attempted.
func (b *Backend) LegsDriven() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.legsDriven
}

// CallCount returns how often the named backend method was invoked.
func (b *Backend) CallCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Closed returns whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
