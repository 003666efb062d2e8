package checkpointer

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a Serializable integer
type counter struct {
	n int
}

func (c *counter) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(c.n)
	return buf.Bytes(), err
}

func (c *counter) GobDecode(in []byte) error {
	return gob.NewDecoder(bytes.NewReader(in)).Decode(&c.n)
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(0, "dir/file", ".bin")
	assert.Equal(t, "dir/file1.bin", next())
	assert.Equal(t, "dir/file2.bin", next())
}

func TestRunEnumerator(t *testing.T) {
	next, id := RunEnumerator("file", ".bin")
	other, otherID := RunEnumerator("file", ".bin")
	assert.NotEqual(t, id, otherID)

	name := next()
	assert.Equal(t, "file-"+id+"-1.bin", name)
	assert.NotEqual(t, name, other())
	assert.True(t, strings.HasSuffix(next(), "-2.bin"))
}

func TestNStep(t *testing.T) {
	dir := t.TempDir()
	object := &counter{}
	check, err := NewNStep(3, object,
		FilenameEnumerator(0, filepath.Join(dir, "counter"), ".bin"))
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		object.n = i
		require.NoError(t, check.Checkpoint(ts.TimeStep{}))
	}

	// Checkpoints at steps 3 and 6 only
	for i, want := range []int{3, 6} {
		var loaded counter
		name := filepath.Join(dir, "counter"+string(rune('1'+i))+".bin")
		require.NoError(t, Load(name, &loaded))
		assert.Equal(t, want, loaded.n)
	}
	_, err = os.Stat(filepath.Join(dir, "counter3.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewNStepErrors(t *testing.T) {
	_, err := NewNStep(0, &counter{}, FilenameEnumerator(0, "f", ".bin"))
	assert.Error(t, err)

	_, err = NewNStep(1, nil, FilenameEnumerator(0, "f", ".bin"))
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing"), &counter{}))
}
