package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewManualProgressBarTo(&buf, 4, 2)
	assert.Equal(t, 0.0, p.Progress())

	p.Increment()
	assert.Equal(t, 0.5, p.Progress())
	assert.True(t, strings.HasPrefix(p.String(), "|██  |"))

	p.Increment()
	p.Increment()
	assert.Equal(t, 1.0, p.Progress(), "progress saturates at 100%")

	p.Display()
	assert.Contains(t, buf.String(), "100.00%")
}
