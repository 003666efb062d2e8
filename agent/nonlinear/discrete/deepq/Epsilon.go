package deepq

import "math"

// EpsilonSchedule exponentially decays the epsilon of an epsilon greedy
// policy from Initial towards Final:
//
//	ε(t) = Final + (Initial - Final) * exp(-t / Timesteps)
type EpsilonSchedule struct {
	Initial   float64
	Final     float64
	Timesteps int
}

// At returns epsilon at timestep t
func (e EpsilonSchedule) At(t int) float64 {
	decay := math.Exp(-float64(t) / float64(e.Timesteps))
	return e.Final + (e.Initial-e.Final)*decay
}
