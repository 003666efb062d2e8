package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestSolverJSON(t *testing.T) {
	s, err := NewDefaultAdam(1e-3, 1)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Solver
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Adam, decoded.Type)
	assert.Equal(t, s.Config, decoded.Config)
	assert.NotNil(t, decoded.Solver)
}

func TestUnmarshalInvalidSolver(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "Adagrad", "Config": {}}`), &s)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"Type": "Vanilla", "Config": `+
		`{"StepSize": -1, "Batch": 1}}`), &s)
	assert.Error(t, err)
}

func TestSetLearningRate(t *testing.T) {
	s, err := NewVanilla(0.1, 1, -1)
	require.NoError(t, err)
	before := s.Solver

	require.NoError(t, s.SetLearningRate(0.1))
	assert.Same(t, before, s.Solver, "unchanged rates keep the solver")

	require.NoError(t, s.SetLearningRate(0.05))
	assert.Equal(t, 0.05, s.LearningRate())
	assert.Same(t, before, s.Solver, "rates are changed in place")
	assert.Error(t, s.SetLearningRate(0))
	assert.Equal(t, 0.05, s.LearningRate())
}

// minimise runs steps Adam updates of the loss Σw² starting from
// w = [2, -1], calling adjust before each update, and returns w
func minimise(t *testing.T, s *Solver, steps int, adjust func()) []float64 {
	t.Helper()
	g := G.NewGraph()
	w := G.NewVector(g, tensor.Float64, G.WithShape(2), G.WithName("w"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{2, -1}))))
	loss := G.Must(G.Sum(G.Must(G.Square(w))))
	_, err := G.Grad(loss, w)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()
	for i := 0; i < steps; i++ {
		adjust()
		require.NoError(t, vm.RunAll())
		require.NoError(t, s.Step(G.NodesToValueGrads(G.Nodes{w})))
		vm.Reset()
	}

	out := make([]float64, 2)
	copy(out, w.Value().Data().([]float64))
	return out
}

func TestSchedulerKeepsSolverState(t *testing.T) {
	const steps = 50

	plain, err := NewDefaultAdam(0.01, 1)
	require.NoError(t, err)
	want := minimise(t, plain, steps, func() {})

	scheduled, err := NewDefaultAdam(0.01, 1)
	require.NoError(t, err)
	sched, err := NewExponentialScheduler(0.999999999).Create(scheduled)
	require.NoError(t, err)
	got := minimise(t, scheduled, steps, func() {
		require.NoError(t, sched.Step())
	})

	assert.Less(t, scheduled.LearningRate(), 0.01)
	assert.InDeltaSlice(t, want, got, 1e-6)
}

func TestSchedulers(t *testing.T) {
	newSolver := func() *Solver {
		s, err := NewDefaultRMSProp(1.0, 1)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		config SchedulerConfig
		steps  int
		want   float64
	}{
		{"step", NewStepScheduler(2, 0.5), 5, 0.25},
		{"exponential", NewExponentialScheduler(0.5), 3, 0.125},
		{"linear-midway", NewLinearScheduler(4, 0.2), 2, 0.6},
		{"linear-after", NewLinearScheduler(4, 0.2), 10, 0.2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newSolver()
			sched, err := test.config.Create(s)
			require.NoError(t, err)

			for i := 0; i < test.steps; i++ {
				require.NoError(t, sched.Step())
			}
			assert.InDelta(t, test.want, sched.LearningRate(), 1e-12)
			assert.InDelta(t, test.want, s.LearningRate(), 1e-12)
			assert.Equal(t, test.steps, sched.Steps())
		})
	}
}

func TestInvalidScheduler(t *testing.T) {
	s, err := NewDefaultAdam(1e-3, 1)
	require.NoError(t, err)

	_, err = NewStepScheduler(0, 0.5).Create(s)
	assert.Error(t, err)
	_, err = NewExponentialScheduler(1.5).Create(s)
	assert.Error(t, err)
	_, err = SchedulerConfig{Type: "Cosine"}.Create(s)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	s, err := NewRMSProp(1e-2, 1e-6, 0.9, 4, 0)
	require.NoError(t, err)

	clone, err := s.Clone()
	require.NoError(t, err)
	assert.Equal(t, s.Type, clone.Type)
	assert.Equal(t, s.LearningRate(), clone.LearningRate())
	assert.NotSame(t, s, clone)

	require.NoError(t, clone.SetLearningRate(1e-3))
	assert.Equal(t, 1e-2, s.LearningRate())
}
