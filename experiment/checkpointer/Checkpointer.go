// Package checkpointer implements checkpointing of gob serializable
// objects, such as policies, during an experiment
package checkpointer

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
	ts "github.com/samuelfneumann/deepq/timestep"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}

// Save gob encodes object to filename
func Save(filename string, object Serializable) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save: could not create checkpoint file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(object); err != nil {
		return errors.Wrapf(err, "save: could not encode checkpoint %v",
			filename)
	}
	return nil
}

// Load decodes the object saved at filename into object
func Load(filename string, object Serializable) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "load: could not open checkpoint file")
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return errors.Wrapf(err, "load: could not decode checkpoint %v",
			filename)
	}
	return nil
}
