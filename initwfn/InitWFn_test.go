package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestJSONRoundTrip(t *testing.T) {
	init, err := NewGlorotU(1.5)
	require.NoError(t, err)

	data, err := json.Marshal(init)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, GlorotU, decoded.Type)
	assert.Equal(t, GlorotUConfig{Gain: 1.5}, decoded.Config)
	assert.NotNil(t, decoded.InitWFn())
}

func TestUnmarshalWithoutConfig(t *testing.T) {
	var decoded InitWFn
	require.NoError(t, json.Unmarshal([]byte(`{"Type": "Zeroes"}`), &decoded))
	assert.Equal(t, Zeroes, decoded.Type)

	w := decoded.InitWFn()(tensor.Float64, 2, 3)
	assert.Equal(t, make([]float64, 6), w)
}

func TestConstantValues(t *testing.T) {
	init, err := NewConstant(0.5)
	require.NoError(t, err)

	w := init.InitWFn()(tensor.Float64, 2, 2)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, w)
}

func TestInvalidConfigs(t *testing.T) {
	_, err := NewGaussian(0, 0)
	assert.Error(t, err)

	_, err = NewUniform(1, 1)
	assert.Error(t, err)

	_, err = NewHeN(-1)
	assert.Error(t, err)

	var decoded InitWFn
	assert.Error(t, json.Unmarshal([]byte(`{"Type": "Orthogonal"}`), &decoded))
}
