package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestDegRad(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldEqual, 90.0)
	test.That(t, DegToRad(RadToDeg(1.234)), test.ShouldAlmostEqual, 1.234, 1e-12)
}

func TestAngleNorm(t *testing.T) {
	test.That(t, AngleNorm(3*math.Pi), test.ShouldAlmostEqual, math.Pi, 1e-12)
	test.That(t, AngleNorm(-3*math.Pi), test.ShouldAlmostEqual, math.Pi, 1e-12)
	test.That(t, AngleNorm(0.5), test.ShouldEqual, 0.5)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(2, 0, 1), test.ShouldEqual, 1.0)
	test.That(t, Clamp(-2, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, 0.5)
}
