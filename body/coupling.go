package body

// The hip yaw joints share one physical motor, so they always move together.
// When a single request commands both with different angles, the priority
// holder wins; the table form keeps the relation auditable.
var couplings = map[Joint]Joint{
	LHipYawPitch: RHipYawPitch,
	RHipYawPitch: LHipYawPitch,
}

// couplingPriority names the joint whose command wins inside each coupled
// pair.
var couplingPriority = map[Joint]Joint{
	LHipYawPitch: LHipYawPitch,
	RHipYawPitch: LHipYawPitch,
}

// CoupledWith returns the joint sharing a motor with the given one, if any.
func CoupledWith(joint Joint) (Joint, bool) {
	other, ok := couplings[joint]
	return other, ok
}

// JointCommand is one (joint, angle, speed) tuple of a motion request.
// Angle is radians; Speed is a fraction in [0, 1].
type JointCommand struct {
	Joint Joint
	Angle float64
	Speed float64
}

// ResolveConflicts normalizes a requested command sequence into one the
// backend can execute consistently. It is pure and deterministic: it never
// consults backend state and resolving an already resolved sequence is a
// no-op.
//
// Two rules apply, in order:
//
//  1. If the same joint appears more than once, the later value in input
//     order wins (last-write-wins). The sequence keeps the position of the
//     joint's first appearance.
//  2. If both members of a motor-coupled pair remain with differing angles,
//     the non-priority joint takes the priority holder's angle, so the pair
//     moves together. A coupled joint commanded alone is left as is; the
//     backend holds the uncommanded twin.
func ResolveConflicts(commands []JointCommand) []JointCommand {
	if len(commands) == 0 {
		return nil
	}

	resolved := make([]JointCommand, 0, len(commands))
	seen := map[Joint]int{}
	for _, cmd := range commands {
		if i, ok := seen[cmd.Joint]; ok {
			resolved[i].Angle = cmd.Angle
			resolved[i].Speed = cmd.Speed
			continue
		}
		seen[cmd.Joint] = len(resolved)
		resolved = append(resolved, cmd)
	}

	for i, cmd := range resolved {
		other, ok := CoupledWith(cmd.Joint)
		if !ok {
			continue
		}
		j, both := seen[other]
		if !both {
			continue
		}
		if couplingPriority[cmd.Joint] == cmd.Joint {
			resolved[j].Angle = resolved[i].Angle
		}
	}

	return resolved
}
