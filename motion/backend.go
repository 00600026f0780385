package motion

import (
	"context"

	"github.com/rapp-project/naomotion/body"
	"github.com/rapp-project/naomotion/spatialmath"
)

// Posture names a predefined whole-body posture.
type Posture string

// The predefined postures the motion backend knows.
const (
	PostureStandInit  Posture = "StandInit"
	PostureStand      Posture = "Stand"
	PostureStandZero  Posture = "StandZero"
	PostureLyingBack  Posture = "LyingBack"
	PostureLyingBelly Posture = "LyingBelly"
	PostureCrouch     Posture = "Crouch"
	PostureSit        Posture = "Sit"
	PostureSitRelax   Posture = "SitRelax"
)

var allPostures = map[Posture]bool{
	PostureStandInit:  true,
	PostureStand:      true,
	PostureStandZero:  true,
	PostureLyingBack:  true,
	PostureLyingBelly: true,
	PostureCrouch:     true,
	PostureSit:        true,
	PostureSitRelax:   true,
}

// safeRestPostures are the only postures from which stiffness may be
// released without the robot falling.
var safeRestPostures = map[Posture]bool{
	PostureCrouch:     true,
	PostureSit:        true,
	PostureSitRelax:   true,
	PostureLyingBelly: true,
	PostureLyingBack:  true,
}

// Valid reports whether the posture is one the backend knows.
func (p Posture) Valid() bool {
	return allPostures[p]
}

// SafeForRest reports whether stiffness may be released in this posture.
func (p Posture) SafeForRest() bool {
	return safeRestPostures[p]
}

// Space selects the reference frame a chain transform is reported in. The
// mapping is backend-defined; the facade passes the selector through
// opaquely.
type Space int

// Space selectors mirror the backend's frame numbering.
const (
	SpaceTorso Space = iota
	SpaceWorld
	SpaceRobot
)

// PathStatus is the backend's report for one leg of path following.
type PathStatus int

const (
	// PathGoalReached means the leg ended at its waypoint.
	PathGoalReached PathStatus = iota
	// PathObstacle means the backend stopped the leg early for an obstacle.
	PathObstacle
)

// A Backend executes motion commands on a real robot or a simulator. It is
// an opaque collaborator: trajectory generation, balance control and
// obstacle detection all live behind it. Implementations must honor context
// cancellation on every blocking method, returning promptly when the
// context ends mid-motion.
//
// A Backend handle is owned by exactly one facade instance; sharing one
// between facades without external synchronization leaves actuator state
// undefined.
type Backend interface {
	// Variant reports the hardware variant of the connected body.
	Variant() body.Variant

	// MoveTo walks to (x, y, theta) relative to the robot's current frame,
	// returning once the goal is reached or the motion failed.
	MoveTo(ctx context.Context, x, y, theta float64) error

	// MoveToward starts moving with the given velocities and returns as soon
	// as the command is accepted.
	MoveToward(ctx context.Context, x, y, theta float64) error

	// Stop halts any motion started by MoveTo, MoveToward or path following.
	Stop(ctx context.Context) error

	// MoveJoints drives the given joints to their target angles. The command
	// sequence must already be conflict-free.
	MoveJoints(ctx context.Context, commands []body.JointCommand) error

	// TakePosture transitions to a predefined posture at the given maximum
	// speed fraction, returning once the posture is held.
	TakePosture(ctx context.Context, posture Posture, speed float64) error

	// PointArm points an arm's fingers at a point in the global frame.
	PointArm(ctx context.Context, x, y, z float64) error

	// LookAt points the main camera at a point in the global frame.
	LookAt(ctx context.Context, x, y, z float64) error

	// SetStiffness switches whole-body motor stiffness.
	SetStiffness(ctx context.Context, stiff bool) error

	// MovePathLeg drives one path leg toward the target at the backend's
	// standard velocity, reporting whether the leg ended at the goal or was
	// cut short by an obstacle.
	MovePathLeg(ctx context.Context, target spatialmath.PoseStamped) (PathStatus, error)

	// ChainTransform reports the homogeneous transform of a chain's
	// end-effector in the requested space. Unsupported spaces must be
	// rejected, never defaulted.
	ChainTransform(ctx context.Context, chain body.Chain, space Space) (spatialmath.Transform, error)

	// GlobalPose reports the current pose estimate in the global frame.
	GlobalPose(ctx context.Context) (spatialmath.PoseStamped, error)

	// SetGlobalPose overrides the global pose estimate, typically after an
	// external localization fix.
	SetGlobalPose(ctx context.Context, pose spatialmath.Pose) error

	// Close tears down the connection to the robot.
	Close(ctx context.Context) error
}
