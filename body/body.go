// Package body describes the NAO body: its kinematic chains, the joints each
// chain carries, which joints exist on which hardware variant, and the one
// motor coupling the robot has. All tables are fixed at init and safe for
// concurrent reads.
package body

import "github.com/pkg/errors"

// Joint names a single articulation, e.g. HeadYaw.
type Joint string

// Chain names a group of mechanically related joints.
type Chain string

// The five kinematic chains.
const (
	ChainHead Chain = "Head"
	ChainLArm Chain = "LArm"
	ChainLLeg Chain = "LLeg"
	ChainRLeg Chain = "RLeg"
	ChainRArm Chain = "RArm"
)

// All NAO joints, chain by chain.
const (
	HeadYaw   Joint = "HeadYaw"
	HeadPitch Joint = "HeadPitch"

	LShoulderPitch Joint = "LShoulderPitch"
	LShoulderRoll  Joint = "LShoulderRoll"
	LElbowYaw      Joint = "LElbowYaw"
	LElbowRoll     Joint = "LElbowRoll"
	LWristYaw      Joint = "LWristYaw"
	LHand          Joint = "LHand"

	LHipYawPitch Joint = "LHipYawPitch"
	LHipRoll     Joint = "LHipRoll"
	LHipPitch    Joint = "LHipPitch"
	LKneePitch   Joint = "LKneePitch"
	LAnklePitch  Joint = "LAnklePitch"
	LAnkleRoll   Joint = "LAnkleRoll"

	RHipYawPitch Joint = "RHipYawPitch"
	RHipRoll     Joint = "RHipRoll"
	RHipPitch    Joint = "RHipPitch"
	RKneePitch   Joint = "RKneePitch"
	RAnklePitch  Joint = "RAnklePitch"
	RAnkleRoll   Joint = "RAnkleRoll"

	RShoulderPitch Joint = "RShoulderPitch"
	RShoulderRoll  Joint = "RShoulderRoll"
	RElbowYaw      Joint = "RElbowYaw"
	RElbowRoll     Joint = "RElbowRoll"
	RWristYaw      Joint = "RWristYaw"
	RHand          Joint = "RHand"
)

// Variant identifies a hardware configuration. It decides which joints
// physically exist; new variants are added by extending the tables below,
// not by branching in call sites.
type Variant string

// The supported hardware variants.
const (
	VariantH25 Variant = "H25"
	VariantH21 Variant = "H21"
)

var chainJoints = map[Chain][]Joint{
	ChainHead: {HeadYaw, HeadPitch},
	ChainLArm: {LShoulderPitch, LShoulderRoll, LElbowYaw, LElbowRoll, LWristYaw, LHand},
	ChainLLeg: {LHipYawPitch, LHipRoll, LHipPitch, LKneePitch, LAnklePitch, LAnkleRoll},
	ChainRLeg: {RHipYawPitch, RHipRoll, RHipPitch, RKneePitch, RAnklePitch, RAnkleRoll},
	ChainRArm: {RShoulderPitch, RShoulderRoll, RElbowYaw, RElbowRoll, RWristYaw, RHand},
}

// absentJoints lists, per variant, joints the hardware does not have.
var absentJoints = map[Variant][]Joint{
	VariantH25: {},
	VariantH21: {LWristYaw, LHand, RWristYaw, RHand},
}

var jointChain = func() map[Joint]Chain {
	m := map[Joint]Chain{}
	for chain, joints := range chainJoints {
		for _, j := range joints {
			m[j] = chain
		}
	}
	return m
}()

// Chains returns the five chains in their canonical order.
func Chains() []Chain {
	return []Chain{ChainHead, ChainLArm, ChainLLeg, ChainRLeg, ChainRArm}
}

// IsChain reports whether name is a known chain name.
func IsChain(name string) bool {
	_, ok := chainJoints[Chain(name)]
	return ok
}

// Joints returns the joints of a chain in kinematic order.
func Joints(chain Chain) []Joint {
	joints := chainJoints[chain]
	out := make([]Joint, len(joints))
	copy(out, joints)
	return out
}

// ChainOf resolves the chain a joint belongs to. Every joint belongs to
// exactly one chain; unknown names are an error.
func ChainOf(joint Joint) (Chain, error) {
	chain, ok := jointChain[joint]
	if !ok {
		return "", errors.Errorf("unknown joint %q", joint)
	}
	return chain, nil
}

// IsKnownVariant reports whether the variant has availability data.
func IsKnownVariant(v Variant) bool {
	_, ok := absentJoints[v]
	return ok
}

// IsAvailable reports whether a joint physically exists on the given
// variant. Unknown joints are never available.
func IsAvailable(joint Joint, v Variant) bool {
	if _, ok := jointChain[joint]; !ok {
		return false
	}
	for _, absent := range absentJoints[v] {
		if absent == joint {
			return false
		}
	}
	return true
}

// AvailableJoints returns every joint present on the given variant, chain by
// chain in canonical order.
func AvailableJoints(v Variant) []Joint {
	var out []Joint
	for _, chain := range Chains() {
		for _, j := range chainJoints[chain] {
			if IsAvailable(j, v) {
				out = append(out, j)
			}
		}
	}
	return out
}
