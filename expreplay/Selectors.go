package expreplay

import (
	"github.com/pkg/errors"

	"golang.org/x/exp/rand"
)

// SelectorType describes the available Selectors
type SelectorType string

// Available Selectors
const (
	Fifo    SelectorType = "Fifo"
	Uniform SelectorType = "Uniform"
)

// CreateSelector returns a new Selector of the given type
func CreateSelector(t SelectorType, batchSize int,
	seed uint64) (Selector, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("createSelector: batch size must be "+
			"positive, have(%v)", batchSize)
	}

	switch t {
	case Fifo:
		return NewFifoSelector(batchSize), nil
	case Uniform:
		return NewUniformSelector(batchSize, seed), nil
	}
	return nil, errors.Errorf("createSelector: no such selector type %q", t)
}

// Selector implements functionality for choosing how data should be
// sampled and/or removed from an experience replay buffer
type Selector interface {
	// choose selects the slots of c at which data should be sampled.
	// If remove is true, the chosen slots are about to be freed and
	// must be distinct.
	choose(c *cache, remove bool) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly. Samples are drawn with replacement,
// removals without.
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(samples int, seed uint64) Selector {
	rng := rand.New(rand.NewSource(seed))

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of slots at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache, remove bool) []int {
	n := len(c.inUse)

	if !remove {
		selected := make([]int, u.samples)
		for i := range selected {
			selected[i] = c.inUse[u.rng.Intn(n)]
		}
		return selected
	}

	// Partial Fisher-Yates shuffle over a copy of the slots in use
	k := u.samples
	if k > n {
		k = n
	}
	candidates := append([]int(nil), c.inUse...)
	for i := 0; i < k; i++ {
		j := i + u.rng.Intn(n-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates[:k]
}

// fifoSelector is a Selector which selects the oldest data in an
// experience replay buffer.
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws data from an
// experience replay buffer in as FiFo.
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects the slots of the oldest data in the buffer. When
// sampling more data than is stored, the oldest data is repeated.
func (f *fifoSelector) choose(c *cache, remove bool) []int {
	n := c.order.Len()
	size := f.samples
	if remove && size > n {
		size = n
	}

	selected := make([]int, size)
	for i := range selected {
		selected[i] = c.order.At(i % n)
	}
	return selected
}
