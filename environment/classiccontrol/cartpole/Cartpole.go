// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 2.4
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	ObservationDims int = 4
	ActionDims      int = 1
)

// base implements the physics of the Cartpole environment and the
// bookkeeping shared by all action types
type base struct {
	task     env.Task
	lastStep ts.TimeStep

	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// newBase returns a new base Cartpole environment and its first
// TimeStep
func newBase(t env.Task) (*base, ts.TimeStep, error) {
	b := &base{
		task:                  t,
		positionBounds:        r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:           r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:           r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds, Max: AngularVelocityBounds},
	}

	step, err := b.reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}
	return b, step, nil
}

func (b *base) reset() (ts.TimeStep, error) {
	state := b.task.Start()
	if err := b.validateState(state); err != nil {
		return ts.TimeStep{}, err
	}

	b.lastStep = ts.New(ts.First, 0.0, state, 0)
	return b.lastStep, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter. Reset panics if the Starter produces a state
// outside of the environment bounds.
func (b *base) Reset() ts.TimeStep {
	step, err := b.reset()
	if err != nil {
		panic(err)
	}
	return step
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (b *base) CurrentTimeStep() ts.TimeStep {
	return b.lastStep
}

// Task returns the Task performed in the environment
func (b *base) Task() env.Task {
	return b.task
}

// RewardSpec returns the reward specification of the environment
func (b *base) RewardSpec() spec.Environment {
	return b.task.RewardSpec()
}

// ObservationSpec returns the observation specification of the
// environment
func (b *base) ObservationSpec() spec.Environment {
	lower := []float64{b.positionBounds.Min, b.speedBounds.Min,
		b.angleBounds.Min, b.angularVelocityBounds.Min}
	upper := []float64{b.positionBounds.Max, b.speedBounds.Max,
		b.angleBounds.Max, b.angularVelocityBounds.Max}

	return spec.NewBox(spec.Observation, lower, upper)
}

// nextState computes the state reached by applying force in the given
// direction, where direction is in [-1, 1]
func (b *base) nextState(direction float64) *mat.VecDense {
	state := b.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := ForceMag * direction

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	// The cart stops when it hits a boundary
	if x <= b.positionBounds.Min || x >= b.positionBounds.Max {
		xDot = 0.0
	}
	x = floatutils.Clip(x, b.positionBounds.Min, b.positionBounds.Max)
	xDot = floatutils.Clip(xDot, b.speedBounds.Min, b.speedBounds.Max)
	th = normalizeAngle(th, b.angleBounds)
	thDot = floatutils.Clip(thDot, b.angularVelocityBounds.Min,
		b.angularVelocityBounds.Max)

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
}

// update transitions the environment to nextState after taking action a
func (b *base) update(a *mat.VecDense, nextState *mat.VecDense) (ts.TimeStep,
	bool) {
	reward := b.task.GetReward(b.lastStep.Observation, a, nextState)
	nextStep := ts.New(ts.Mid, reward, nextState, b.lastStep.Number+1)

	b.task.End(&nextStep)

	b.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// validateState ensures that a state observation is between the
// physical bounds of the Cartpole environment
func (b *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return errors.Errorf("validateState: invalid number of state features"+
			"\n\twant(%v)\n\thave(%v)", ObservationDims, obs.Len())
	}

	bounds := []r1.Interval{b.positionBounds, b.speedBounds, b.angleBounds,
		b.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}
	for i, bound := range bounds {
		if obs.AtVec(i) < bound.Min || obs.AtVec(i) > bound.Max {
			return errors.Errorf("validateState: %v %v not within bounds %v",
				names[i], obs.AtVec(i), bound)
		}
	}
	return nil
}

func (b *base) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := b.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// normalizeAngle normalizes the pole angle to (-π, π]
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	width := angleBounds.Max - angleBounds.Min
	for th > angleBounds.Max {
		th -= width
	}
	for th <= angleBounds.Min {
		th += width
	}
	return th
}
