// Package expreplay implements experience replay buffers which store
// transitions and sample batches of them for learning
package expreplay

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	RemoveMethod      SelectorType
	SampleMethod      SelectorType
	RemoveSize        int
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if c.RemoveSize < 1 || c.SampleSize < 1 {
		return errors.Errorf("validate: remove size (%v) and sample size "+
			"(%v) must be positive", c.RemoveSize, c.SampleSize)
	}
	if c.MinReplayCapacity < 1 {
		return errors.Errorf("validate: min capacity must be positive, "+
			"have(%v)", c.MinReplayCapacity)
	}
	if c.MaxReplayCapacity < c.MinReplayCapacity {
		return errors.Errorf("validate: max capacity (%v) must be at "+
			"least min capacity (%v)", c.MaxReplayCapacity,
			c.MinReplayCapacity)
	}
	if c.RemoveSize > c.MaxReplayCapacity {
		return errors.Errorf("validate: remove size (%v) must not exceed "+
			"max capacity (%v)", c.RemoveSize, c.MaxReplayCapacity)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.WithMessage(err, "create")
	}

	remover, err := CreateSelector(c.RemoveMethod, c.RemoveSize, seed)
	if err != nil {
		return nil, errors.WithMessage(err, "create")
	}
	sampler, err := CreateSelector(c.SampleMethod, c.SampleSize, seed+1)
	if err != nil {
		return nil, errors.WithMessage(err, "create")
	}

	return New(remover, sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// Batch is a batch of transitions sampled from a replay buffer. Each
// field stores the batch in row-major order: State holds Size rows of
// Features values, Action holds Size rows of ActionDims values, and
// Reward and Done hold one value per transition. Done is 1.0 for
// transitions that end in a terminal state and 0.0 otherwise.
type Batch struct {
	State     []float64
	Action    []float64
	Reward    []float64
	NextState []float64
	Done      []float64

	Size       int
	Features   int
	ActionDims int
}

// ExperienceReplayer implements an experience replay buffer. It is safe
// to Add and Sample concurrently.
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer. Sampling
	// does not remove data from the buffer.
	Sample() (Batch, error)

	// Len returns the current number of samples in the buffer
	Len() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer. Transitions are
// stored in fixed slots of flat caches.
type cache struct {
	mu sync.Mutex

	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []float64

	// The slots of the cache that are empty and have no data
	emptySlots []int

	// The slots of the cache that have data, with position[slot] the
	// index of slot in inUse
	inUse    []int
	position []int

	// order holds the slots in use in the chronological order of
	// insertion, oldest first
	order *deque.Deque[int]

	// Outlines how data is removed and sampled
	remover Selector
	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The remover and
// sampler paramters are Selectors which determine how data is removed
// and sampled from the replay buffer. The featureSize and actionSize
// parameters define the size of the feature and action vectors.
//
// Pixel observations should be flattened before adding to the buffer.
func New(remover, sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, errors.New("new: minCapacity must be > 0")
	}
	if maxCapacity < minCapacity {
		return nil, errors.Errorf("new: maxCapacity (%v) must be >= "+
			"minCapacity (%v)", maxCapacity, minCapacity)
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, errors.Errorf("new: feature size (%v) and action size "+
			"(%v) must be positive", featureSize, actionSize)
	}
	if remover.BatchSize() > maxCapacity {
		return nil, errors.Errorf("new: cannot remove %v samples from a "+
			"buffer with max capacity %v", remover.BatchSize(), maxCapacity)
	}

	emptySlots := make([]int, maxCapacity)
	for i := range emptySlots {
		// Fill slots from 0 upwards
		emptySlots[i] = maxCapacity - 1 - i
	}

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		doneCache:      make([]float64, maxCapacity),

		emptySlots: emptySlots,
		inUse:      make([]int, 0, maxCapacity),
		position:   make([]int, maxCapacity),
		order:      deque.New[int](maxCapacity),

		remover: remover,
		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fmt.Sprintf("ExpReplay | Len: %v  |  Min: %v  |  Max: %v  |  "+
		"Batch: %v", len(c.inUse), c.minCapacity, c.maxCapacity,
		c.sampler.BatchSize())
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Len returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.inUse)
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// remove frees the slots chosen by the cache's remover
func (c *cache) remove() {
	removed := make(map[int]struct{}, c.remover.BatchSize())
	for _, slot := range c.remover.choose(c, true) {
		// Swap-delete the slot from the slots in use
		i := c.position[slot]
		last := c.inUse[len(c.inUse)-1]
		c.inUse[i] = last
		c.position[last] = i
		c.inUse = c.inUse[:len(c.inUse)-1]

		c.emptySlots = append(c.emptySlots, slot)
		removed[slot] = struct{}{}
	}

	// Fifo removals are always at the front of the insertion order
	for c.order.Len() > 0 {
		if _, ok := removed[c.order.Front()]; !ok {
			break
		}
		delete(removed, c.order.PopFront())
	}
	if len(removed) == 0 {
		return
	}

	// Drop the remaining removed slots, preserving insertion order
	for n := c.order.Len(); n > 0; n-- {
		slot := c.order.PopFront()
		if _, ok := removed[slot]; !ok {
			c.order.PushBack(slot)
		}
	}
}

// Add adds a transition to the cache. If the cache is full, data is
// first removed using the cache's remover.
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return errors.Errorf("add: invalid feature size\n\twant(%v)"+
			"\n\thave(%v, %v)", c.featureSize, t.State.Len(),
			t.NextState.Len())
	}
	if t.Action.Len() != c.actionSize {
		return errors.Errorf("add: invalid action size\n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inUse) >= c.maxCapacity {
		c.remove()
	}

	slot := c.emptySlots[len(c.emptySlots)-1]
	c.emptySlots = c.emptySlots[:len(c.emptySlots)-1]
	c.position[slot] = len(c.inUse)
	c.inUse = append(c.inUse, slot)
	c.order.PushBack(slot)

	// Copy states
	stateInd := slot * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	// Copy actions
	actionInd := slot * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	c.rewardCache[slot] = t.Reward
	c.doneCache[slot] = t.Terminal()

	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *cache) Sample() (Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inUse) == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if len(c.inUse) < c.minCapacity {
		return Batch{}, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	slots := c.sampler.choose(c, false)
	size := len(slots)

	batch := Batch{
		State:      make([]float64, size*c.featureSize),
		NextState:  make([]float64, size*c.featureSize),
		Action:     make([]float64, size*c.actionSize),
		Reward:     make([]float64, size),
		Done:       make([]float64, size),
		Size:       size,
		Features:   c.featureSize,
		ActionDims: c.actionSize,
	}

	for i, slot := range slots {
		batchInd, cacheInd := i*c.featureSize, slot*c.featureSize
		copy(batch.State[batchInd:batchInd+c.featureSize],
			c.stateCache[cacheInd:cacheInd+c.featureSize])
		copy(batch.NextState[batchInd:batchInd+c.featureSize],
			c.nextStateCache[cacheInd:cacheInd+c.featureSize])

		batchInd, cacheInd = i*c.actionSize, slot*c.actionSize
		copy(batch.Action[batchInd:batchInd+c.actionSize],
			c.actionCache[cacheInd:cacheInd+c.actionSize])

		batch.Reward[i] = c.rewardCache[slot]
		batch.Done[i] = c.doneCache[slot]
	}

	return batch, nil
}
