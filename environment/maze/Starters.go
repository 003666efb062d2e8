package maze

import (
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"gonum.org/v1/gonum/mat"
)

// SingleStart always starts episodes in the same cell
type SingleStart struct {
	state *mat.VecDense
}

// NewSingleStart returns a Starter which starts every episode at
// (col, row) in a maze with r rows and c columns
func NewSingleStart(col, row, r, c int) (*SingleStart, error) {
	if col < 0 || col >= c {
		return nil, errors.Errorf("newSingleStart: col = %d ∉ [0, %d)",
			col, c)
	} else if row < 0 || row >= r {
		return nil, errors.Errorf("newSingleStart: row = %d ∉ [0, %d)",
			row, r)
	}

	return &SingleStart{mat.NewVecDense(2, []float64{
		float64(col), float64(row),
	})}, nil
}

// Start returns the starting [col, row]
func (s *SingleStart) Start() *mat.VecDense {
	return mat.VecDenseCopyOf(s.state)
}

// NewUniformStart returns a Starter which starts episodes in a cell
// drawn uniformly at random from a maze with r rows and c columns
func NewUniformStart(r, c int, seed uint64) environment.Starter {
	return environment.NewCategoricalStarter([]int{c, r}, seed)
}
