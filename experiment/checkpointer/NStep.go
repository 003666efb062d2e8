package checkpointer

import (
	"github.com/pkg/errors"
	ts "github.com/samuelfneumann/deepq/timestep"
)

// nStep implements checkpointing every N steps. Steps are counted
// across episodes, one per call to Checkpoint.
type nStep struct {
	interval int
	steps    int
	object   Serializable // Object to save

	// filename returns the filename of the file to save the object in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), use FilenameEnumerator.
	// To keep the checkpoints of separate runs apart, use RunEnumerator:
	//
	//	names, runID := RunEnumerator("policy", ".bin")
	//	n, err := NewNStep(10, object, names)
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps.
func NewNStep(n int, object Serializable,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, errors.Errorf("newNStep: checkpoint interval must be "+
			"positive, have(%v)", n)
	}
	if object == nil {
		return nil, errors.New("newNStep: cannot checkpoint nil object")
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object when the number of steps seen is
// a multiple of the checkpoint interval
func (n *nStep) Checkpoint(ts.TimeStep) error {
	n.steps++
	if n.steps%n.interval != 0 {
		return nil
	}
	return errors.WithMessagef(Save(n.filename(), n.object),
		"checkpoint: step %v", n.steps)
}
