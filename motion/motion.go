// Package motion exposes the motion-control facade for a NAO-class robot:
// a stable interface turning high-level motion intents into backend
// commands while enforcing joint availability, shared-motor couplings and
// blocking semantics. All real execution is delegated to an opaque Backend.
package motion

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rapp-project/naomotion/body"
	"github.com/rapp-project/naomotion/operation"
	"github.com/rapp-project/naomotion/spatialmath"
)

const (
	// defaultJointSpeed applies when MoveJoint is called without an explicit
	// speed: maximum speed fraction.
	defaultJointSpeed = 1.0

	// restSpeed paces the posture transition performed by Rest.
	restSpeed = 0.5
)

// A Service is the caller-facing motion facade. Each method issues exactly
// one motion request. Methods documented as blocking suspend the caller
// until the backend reports physical completion or failure; the others
// return once the command is accepted.
//
// A Service instance is meant for a single caller context. MoveStop is the
// one exception: it may be called concurrently with an in-flight blocking
// call and makes that call return promptly.
type Service interface {
	// PointArm points an arm's fingers at (x, y, z) in the global frame.
	// Blocking.
	PointArm(ctx context.Context, x, y, z float64) error

	// MoveTo walks to (x, y, theta) relative to the current robot frame.
	// Blocking.
	MoveTo(ctx context.Context, x, y, theta float64) error

	// MoveVel starts holonomic motion with linear velocities x, y and
	// angular velocity theta. Non-blocking.
	MoveVel(ctx context.Context, x, y, theta float64) error

	// MoveVelDiff starts non-holonomic (differential-drive) motion with
	// linear velocity x and angular velocity theta. Non-blocking.
	MoveVelDiff(ctx context.Context, x, theta float64) error

	// MoveStop halts motion started by MoveTo, MoveVel or MoveAlongPath and
	// interrupts any blocking call in flight. Non-blocking.
	MoveStop(ctx context.Context) error

	// MoveJoint drives the named joints or chains to the given angles
	// (radians) at maximum speed. A chain name stands for its member joints,
	// each taking that entry's angle. Blocking.
	MoveJoint(ctx context.Context, names []string, angles []float64) error

	// MoveJointAtSpeed is MoveJoint with an explicit maximum speed fraction
	// in [0, 1]; 1 is full speed, 0 commands no movement. Blocking.
	MoveJointAtSpeed(ctx context.Context, names []string, angles []float64, speed float64) error

	// TakePredefinedPosture transitions to one of the predefined postures at
	// the given maximum speed fraction. Blocking.
	TakePredefinedPosture(ctx context.Context, posture Posture, speed float64) error

	// LookAtPoint points the main camera at (x, y, z) in the global frame.
	// Blocking.
	LookAtPoint(ctx context.Context, x, y, z float64) error

	// Rest takes a safe posture and then releases motor stiffness. Postures
	// outside the safe set are rejected before the backend is contacted, and
	// stiffness stays on unless the posture transition succeeds. Blocking.
	Rest(ctx context.Context, posture Posture) error

	// MoveAlongPath walks through the stamped poses in order at the
	// backend's standard velocity. It stops at the first obstacle the
	// backend reports, returning an error that unwraps to ErrInterrupted
	// and carries the number of waypoints reached. Blocking.
	MoveAlongPath(ctx context.Context, path []spatialmath.PoseStamped) error

	// GlobalPose returns the current pose estimate in the global frame.
	GlobalPose(ctx context.Context) (spatialmath.PoseStamped, error)

	// SetGlobalPose overrides the global pose estimate, typically after an
	// external localization fix.
	SetGlobalPose(ctx context.Context, pose spatialmath.Pose) error

	// Transform returns the homogeneous transform of a chain's end-effector
	// in the requested space. The space selector is passed to the backend
	// opaquely; an unsupported selector is an error, never a default.
	Transform(ctx context.Context, chain body.Chain, space Space) (spatialmath.Transform, error)

	// Close stops any in-flight motion and tears down the backend handle.
	Close(ctx context.Context) error
}

var _ = Service(&motionService{})

type motionService struct {
	backend Backend
	variant body.Variant
	logger  golog.Logger
	opMgr   operation.SingleOperationManager
}

// New wraps a live backend in the motion facade. The facade takes exclusive
// ownership of the backend handle; Close releases it.
func New(backend Backend, logger golog.Logger) (Service, error) {
	if backend == nil {
		return nil, errors.New("a backend is required")
	}
	variant := backend.Variant()
	if !body.IsKnownVariant(variant) {
		return nil, errors.Errorf("backend reports unknown body variant %q", variant)
	}
	return &motionService{backend: backend, variant: variant, logger: logger}, nil
}

// NewFromConfig constructs the configured backend model and wraps it.
func NewFromConfig(ctx context.Context, cfg Config, logger golog.Logger) (Service, error) {
	backend, err := NewBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(backend, logger)
}

// runBlocking dispatches one blocking request. The operation manager
// serializes it against MoveStop: a stop cancels the derived context and the
// call returns ErrInterrupted instead of waiting for the original goal.
func (s *motionService) runBlocking(ctx context.Context, method string, run func(context.Context) error) error {
	opCtx, done := s.opMgr.New(ctx)
	defer done()
	if id, ok := s.opMgr.CurrentOpID(); ok {
		s.logger.Debugw("dispatching blocking call", "method", method, "op", id.String())
	}
	err := run(opCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return errors.Wrapf(ErrInterrupted, "%s stopped", method)
	}
	return errors.Wrap(err, method)
}

func (s *motionService) PointArm(ctx context.Context, x, y, z float64) error {
	return s.runBlocking(ctx, "PointArm", func(ctx context.Context) error {
		return s.backend.PointArm(ctx, x, y, z)
	})
}

func (s *motionService) MoveTo(ctx context.Context, x, y, theta float64) error {
	return s.runBlocking(ctx, "MoveTo", func(ctx context.Context) error {
		return s.backend.MoveTo(ctx, x, y, theta)
	})
}

func (s *motionService) MoveVel(ctx context.Context, x, y, theta float64) error {
	return errors.Wrap(s.backend.MoveToward(ctx, x, y, theta), "MoveVel")
}

func (s *motionService) MoveVelDiff(ctx context.Context, x, theta float64) error {
	return errors.Wrap(s.backend.MoveToward(ctx, x, 0, theta), "MoveVelDiff")
}

func (s *motionService) MoveStop(ctx context.Context) error {
	s.opMgr.CancelRunning(ctx)
	return errors.Wrap(s.backend.Stop(ctx), "MoveStop")
}

func (s *motionService) MoveJoint(ctx context.Context, names []string, angles []float64) error {
	return s.MoveJointAtSpeed(ctx, names, angles, defaultJointSpeed)
}

func (s *motionService) MoveJointAtSpeed(ctx context.Context, names []string, angles []float64, speed float64) error {
	commands, err := s.jointCommands(names, angles, speed)
	if err != nil {
		return err
	}
	return s.runBlocking(ctx, "MoveJoint", func(ctx context.Context) error {
		return s.backend.MoveJoints(ctx, commands)
	})
}

// jointCommands validates a joint request and normalizes it into a
// conflict-free command sequence. Chain names expand to their member joints
// present on the active variant, each taking the entry's angle. No command
// reaches the backend unless the whole request validates.
func (s *motionService) jointCommands(names []string, angles []float64, speed float64) ([]body.JointCommand, error) {
	if len(names) != len(angles) {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"%d joint name(s) against %d angle(s)", len(names), len(angles))
	}
	if len(names) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "no joints requested")
	}
	if speed < 0 || speed > 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "speed fraction %v outside [0, 1]", speed)
	}

	commands := make([]body.JointCommand, 0, len(names))
	for i, name := range names {
		if body.IsChain(name) {
			for _, joint := range body.Joints(body.Chain(name)) {
				if !body.IsAvailable(joint, s.variant) {
					continue
				}
				commands = append(commands, body.JointCommand{Joint: joint, Angle: angles[i], Speed: speed})
			}
			continue
		}
		joint := body.Joint(name)
		if _, err := body.ChainOf(joint); err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "unknown joint or chain %q", name)
		}
		if !body.IsAvailable(joint, s.variant) {
			return nil, errors.Wrapf(ErrUnavailable, "joint %q on variant %q", name, s.variant)
		}
		commands = append(commands, body.JointCommand{Joint: joint, Angle: angles[i], Speed: speed})
	}
	return body.ResolveConflicts(commands), nil
}

func (s *motionService) TakePredefinedPosture(ctx context.Context, posture Posture, speed float64) error {
	if !posture.Valid() {
		return errors.Wrapf(ErrInvalidArgument, "unknown posture %q", posture)
	}
	if speed < 0 || speed > 1 {
		return errors.Wrapf(ErrInvalidArgument, "speed fraction %v outside [0, 1]", speed)
	}
	return s.runBlocking(ctx, "TakePredefinedPosture", func(ctx context.Context) error {
		return s.backend.TakePosture(ctx, posture, speed)
	})
}

func (s *motionService) LookAtPoint(ctx context.Context, x, y, z float64) error {
	return s.runBlocking(ctx, "LookAtPoint", func(ctx context.Context) error {
		return s.backend.LookAt(ctx, x, y, z)
	})
}

func (s *motionService) Rest(ctx context.Context, posture Posture) error {
	if !posture.SafeForRest() {
		return errors.Wrapf(ErrInvalidArgument, "posture %q is not safe for rest", posture)
	}
	return s.runBlocking(ctx, "Rest", func(ctx context.Context) error {
		if err := s.backend.TakePosture(ctx, posture, restSpeed); err != nil {
			return err
		}
		// Stiffness comes off only once the posture is held.
		return s.backend.SetStiffness(ctx, false)
	})
}

func (s *motionService) MoveAlongPath(ctx context.Context, path []spatialmath.PoseStamped) error {
	if len(path) == 0 {
		return errors.Wrap(ErrInvalidArgument, "empty path")
	}
	return s.runBlocking(ctx, "MoveAlongPath", func(ctx context.Context) error {
		for i, waypoint := range path {
			status, err := s.backend.MovePathLeg(ctx, waypoint)
			if err != nil {
				return err
			}
			if status == PathObstacle {
				return &InterruptedError{Reached: i}
			}
		}
		return nil
	})
}

func (s *motionService) GlobalPose(ctx context.Context) (spatialmath.PoseStamped, error) {
	pose, err := s.backend.GlobalPose(ctx)
	if err != nil {
		return spatialmath.PoseStamped{}, errors.Wrap(err, "GlobalPose")
	}
	return pose, nil
}

func (s *motionService) SetGlobalPose(ctx context.Context, pose spatialmath.Pose) error {
	return errors.Wrap(s.backend.SetGlobalPose(ctx, pose), "SetGlobalPose")
}

func (s *motionService) Transform(ctx context.Context, chain body.Chain, space Space) (spatialmath.Transform, error) {
	if !body.IsChain(string(chain)) {
		return spatialmath.Transform{}, errors.Wrapf(ErrInvalidArgument, "unknown chain %q", chain)
	}
	tf, err := s.backend.ChainTransform(ctx, chain, space)
	if err != nil {
		return spatialmath.Transform{}, errors.Wrap(err, "Transform")
	}
	return tf, nil
}

func (s *motionService) Close(ctx context.Context) error {
	s.opMgr.CancelRunning(ctx)
	return multierr.Combine(
		s.backend.Stop(ctx),
		s.backend.Close(ctx),
	)
}
