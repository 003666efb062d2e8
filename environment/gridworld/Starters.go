package gridworld

import (
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"gonum.org/v1/gonum/mat"
)

// SingleStart always starts episodes in the same cell
type SingleStart struct {
	state *mat.VecDense
}

// NewSingleStart returns a Starter which starts every episode at (x, y)
// in a gridworld with r rows and c columns
func NewSingleStart(x, y, r, c int) (*SingleStart, error) {
	if x < 0 || x >= c {
		return nil, errors.Errorf("newSingleStart: x = %d ∉ [0, %d)", x, c)
	} else if y < 0 || y >= r {
		return nil, errors.Errorf("newSingleStart: y = %d ∉ [0, %d)", y, r)
	}

	start := mat.NewVecDense(1, []float64{float64(cToInd(x, y, c))})
	return &SingleStart{start}, nil
}

// Start returns the starting cell index
func (s *SingleStart) Start() *mat.VecDense {
	return mat.VecDenseCopyOf(s.state)
}

// NewUniformStart returns a Starter which starts episodes in a cell
// drawn uniformly at random from a gridworld with r rows and c columns
func NewUniformStart(r, c int, seed uint64) environment.Starter {
	return environment.NewCategoricalStarter([]int{r * c}, seed)
}
