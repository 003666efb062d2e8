package network

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func newTestMLP(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	t.Helper()
	net, err := NewMultiHeadMLP(2, batch, 2, G.NewGraph(), []int{3},
		[]bool{true}, init, []*Activation{ReLU()})
	require.NoError(t, err)
	return net
}

func learnableValues(t *testing.T, net NeuralNet) [][]float64 {
	t.Helper()
	out := make([][]float64, 0, len(net.Learnables()))
	for _, node := range net.Learnables() {
		data, err := values(node)
		require.NoError(t, err)
		out = append(out, append([]float64(nil), data...))
	}
	return out
}

func forward(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	require.NoError(t, net.SetInput(input))
	require.NoError(t, vm.RunAll())
	return append([]float64(nil), net.Output().Data().([]float64)...)
}

func TestMultiHeadMLPForward(t *testing.T) {
	net := newTestMLP(t, 1, G.Ones())
	assert.Equal(t, 2, net.Features())
	assert.Equal(t, 2, net.Outputs())
	assert.Equal(t, 1, net.BatchSize())

	// Hidden units: 1 + 2 + 1 = 4, outputs: 3 * 4 + 1 = 13
	assert.Equal(t, []float64{13, 13}, forward(t, net, []float64{1, 2}))

	// ReLU zeroes out negative pre-activations, leaving only the bias
	assert.Equal(t, []float64{1, 1}, forward(t, net, []float64{-5, -5}))
}

func TestMultiHeadMLPInvalidArchitecture(t *testing.T) {
	_, err := NewMultiHeadMLP(2, 1, 2, G.NewGraph(), []int{3},
		[]bool{true, false}, G.Zeroes(), []*Activation{ReLU()})
	assert.Error(t, err)

	_, err = NewMultiHeadMLP(2, 1, 2, G.NewGraph(), []int{3},
		[]bool{true}, G.Zeroes(), nil)
	assert.Error(t, err)

	_, err = NewMultiHeadMLP(0, 1, 2, G.NewGraph(), nil, nil, G.Zeroes(),
		nil)
	assert.Error(t, err)
}

func TestMultiHeadMLPSetInputSize(t *testing.T) {
	net := newTestMLP(t, 2, G.Zeroes())
	assert.Error(t, net.SetInput([]float64{1, 2}))
	assert.NoError(t, net.SetInput([]float64{1, 2, 3, 4}))
}

func TestMultiHeadMLPSet(t *testing.T) {
	dest := newTestMLP(t, 1, G.Zeroes())
	src := newTestMLP(t, 1, G.Ones())

	require.NoError(t, dest.Set(src))
	assert.Equal(t, learnableValues(t, src), learnableValues(t, dest))

	// Set copies weights rather than sharing them
	data, err := values(src.Learnables()[0])
	require.NoError(t, err)
	data[0] = 100
	destData, err := values(dest.Learnables()[0])
	require.NoError(t, err)
	assert.Equal(t, 1.0, destData[0])

	other, err := NewMultiHeadMLP(2, 1, 2, G.NewGraph(), []int{4},
		[]bool{true}, G.Zeroes(), []*Activation{ReLU()})
	require.NoError(t, err)
	assert.Error(t, dest.Set(other))
}

func TestMultiHeadMLPPolyak(t *testing.T) {
	for _, test := range []struct {
		name string
		tau  float64
		want float64
	}{
		{"NoOp", 0.0, 0.0},
		{"Average", 0.25, 0.25},
		{"Copy", 1.0, 1.0},
	} {
		t.Run(test.name, func(t *testing.T) {
			dest := newTestMLP(t, 1, G.Zeroes())
			src := newTestMLP(t, 1, G.Ones())

			require.NoError(t, dest.Polyak(src, test.tau))
			for _, weights := range learnableValues(t, dest) {
				for _, w := range weights {
					assert.InDelta(t, test.want, w, 1e-12)
				}
			}
		})
	}

	dest := newTestMLP(t, 1, G.Zeroes())
	src := newTestMLP(t, 1, G.Ones())
	assert.Error(t, dest.Polyak(src, 1.5))
	assert.Error(t, dest.Polyak(src, -0.1))
}

func TestMultiHeadMLPClone(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotU(1.0))

	clone, err := net.Clone()
	require.NoError(t, err)
	assert.NotSame(t, net.Graph(), clone.Graph())
	assert.Equal(t, learnableValues(t, net), learnableValues(t, clone))

	batched, err := net.CloneWithBatch(4)
	require.NoError(t, err)
	assert.Equal(t, 4, batched.BatchSize())
	assert.Equal(t, learnableValues(t, net), learnableValues(t, batched))

	// The same weights produce the same predictions for every row
	input := []float64{0.5, -1}
	want := forward(t, net, input)
	got := forward(t, batched, append(append(append(append([]float64{},
		input...), input...), input...), input...))
	for i := 0; i < 4; i++ {
		assert.InDeltaSlice(t, want, got[i*2:(i+1)*2], 1e-12)
	}

	_, err = net.CloneWithBatch(0)
	assert.Error(t, err)
}

func TestMultiHeadMLPGob(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotN(1.0))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(net))

	var decoded multiHeadMLP
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	assert.Equal(t, net.Features(), decoded.Features())
	assert.Equal(t, net.Outputs(), decoded.Outputs())
	assert.Equal(t, learnableValues(t, net), learnableValues(t, &decoded))

	input := []float64{0.3, 0.7}
	assert.InDeltaSlice(t, forward(t, net, input),
		forward(t, &decoded, input), 1e-12)
}

func TestActivationJSON(t *testing.T) {
	acts := []*Activation{ReLU(), TanH(), Sigmoid(), Identity()}
	data, err := json.Marshal(acts)
	require.NoError(t, err)

	var decoded []*Activation
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(acts))
	for i := range acts {
		assert.Equal(t, acts[i].String(), decoded[i].String())
	}
	assert.True(t, decoded[3].IsIdentity())
}
