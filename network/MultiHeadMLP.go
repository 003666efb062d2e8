package network

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with multiple
// output nodes, one for each value that should be predicted. For a
// Q-network, each output head is the value of a single action.
type multiHeadMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Hidden layer configuration, excluding the final linear layer,
	// needed for cloning and gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    *G.Value
}

func init() {
	// Register the concrete type so that NeuralNet interface values
	// can be gobbed
	gob.Register(&multiHeadMLP{})
}

// mlpHeader stores the architecture of a multiHeadMLP for gobbing
type mlpHeader struct {
	Outputs     int
	Inputs      int
	BatchSize   int
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// that has multiple output nodes, The number of outputs nodes is equal
// to outputs. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer is always added such that given any input, the output will
// be outputs. The final layer also contains a bias unit, and bias units
// for each additional hidden layer is specified by biases. The final
// layer will contain no activations, and the activations of additional
// hidden layers is specified by activations. The parameter init
// determines the weight initialization scheme.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if err := validateArchitecture(features, batch, outputs, hiddenSizes,
		biases, activations); err != nil {
		return nil, errors.WithMessage(err, "newMultiHeadMLP")
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Copy the architecture so callers' slices are never aliased
	hiddenSizes = append([]int(nil), hiddenSizes...)
	biases = append([]bool(nil), biases...)
	activations = append([]*Activation(nil), activations...)

	// Add a final linear layer with no activation so that the network
	// predicts one value per output head
	allSizes := append(append([]int(nil), hiddenSizes...), outputs)
	allBiases := append(append([]bool(nil), biases...), true)
	allActs := append(append([]*Activation(nil), activations...), Identity())

	layers := addfcLayers(g, allSizes, allBiases, allActs, init, features,
		"", "")

	net := &multiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, errors.WithMessage(err, "newMultiHeadMLP: could not "+
			"compute forward pass")
	}

	return net, nil
}

// validateArchitecture ensures that an MLP architecture is legal
func validateArchitecture(features, batch, outputs int, hiddenSizes []int,
	biases []bool, activations []*Activation) error {
	if features < 1 || batch < 1 || outputs < 1 {
		return errors.Errorf("features (%v), batch size (%v), and outputs "+
			"(%v) must be positive", features, batch, outputs)
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		return errors.Errorf("invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		return errors.Errorf("invalid number of biases\n\twant(%d)"+
			"\n\thave(%d)", len(hiddenSizes), len(biases))
	}

	for i, size := range hiddenSizes {
		if size < 1 {
			return errors.Errorf("hidden layer %v must have at least 1 unit, "+
				"have(%v)", i, size)
		}
		if activations[i] == nil {
			return errors.Errorf("hidden layer %v has a nil activation", i)
		}
	}
	return nil
}

// Graph returns the computational graph of the multiHeadMLP.
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a multiHeadMLP
func (e *multiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a multiHeadMLP, including its weights, to a new
// computational graph with a new input batch size.
func (e *multiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("cloneWithBatch: batch size must be "+
			"positive, have(%v)", batchSize)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers
	layers := make([]Layer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].CloneTo(graph)
	}

	net := &multiHeadMLP{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, errors.WithMessage(err, "cloneWithBatch: could not "+
			"clone")
	}

	return net, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *multiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *multiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass. The input must contain BatchSize() * Features() values stored
// in row-major order.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return errors.Errorf("setInput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of a multiHeadMLP to be equal to the
// weights of another NeuralNet with the same architecture
func (e *multiHeadMLP) Set(source NeuralNet) error {
	dest, src, err := e.weightsWith(source)
	if err != nil {
		return errors.WithMessage(err, "set")
	}

	for i := range dest {
		copy(dest[i], src[i])
	}
	return nil
}

// Polyak sets the weights of a multiHeadMLP to be a polyak
// average between its existing weights and the weights of another
// NeuralNet with the same architecture:
//
//	θ ← τθ_source + (1 - τ)θ
//
// A tau of 1 copies the source weights and a tau of 0 leaves the
// weights unchanged.
func (e *multiHeadMLP) Polyak(source NeuralNet, tau float64) error {
	if tau < 0 || tau > 1 {
		return errors.Errorf("polyak: tau must be in [0, 1], have(%v)", tau)
	}

	dest, src, err := e.weightsWith(source)
	if err != nil {
		return errors.WithMessage(err, "polyak")
	}

	switch tau {
	case 0.0:
		return nil
	case 1.0:
		for i := range dest {
			copy(dest[i], src[i])
		}
	default:
		for i := range dest {
			floats.Scale(1-tau, dest[i])
			floats.AddScaled(dest[i], tau, src[i])
		}
	}
	return nil
}

// weightsWith returns the backing data of the weights of e and source,
// ensuring that both networks have the same architecture. The returned
// slices alias the weights, so modifying them modifies the networks.
func (e *multiHeadMLP) weightsWith(source NeuralNet) ([][]float64,
	[][]float64, error) {
	nodes := e.Learnables()
	sourceNodes := source.Learnables()
	if len(nodes) != len(sourceNodes) {
		return nil, nil, errors.Errorf("invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	dest := make([][]float64, len(nodes))
	src := make([][]float64, len(nodes))
	for i := range nodes {
		var err error
		if dest[i], err = values(nodes[i]); err != nil {
			return nil, nil, err
		}
		if src[i], err = values(sourceNodes[i]); err != nil {
			return nil, nil, err
		}
		if len(dest[i]) != len(src[i]) {
			return nil, nil, errors.Errorf("invalid shape for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", nodes[i].Name(), nodes[i].Shape(),
				sourceNodes[i].Shape())
		}
	}
	return dest, src, nil
}

// values returns the float64 backing data of a node's value
func values(node *G.Node) ([]float64, error) {
	if node.Value() == nil {
		return nil, errors.Errorf("node %v has no value", node.Name())
	}

	data, ok := node.Value().Data().([]float64)
	if !ok {
		return nil, errors.Errorf("node %v does not hold float64 values",
			node.Name())
	}
	return data, nil
}

// Learnables returns the learnable nodes in a multiHeadMLP
func (e *multiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables computes all the learnables for the network
func (e *multiHeadMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].Weights())
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnables nodes with their gradients.
func (e *multiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = e.computeModel()
	}
	return e.model
}

// computeModel computes the model for the network
func (e *multiHeadMLP) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the multiHeadMLP on the input
// node
func (e *multiHeadMLP) fwd(input *G.Node) (*G.Node, error) {
	if !input.IsMatrix() {
		return nil, errors.New("fwd: input must be a matrix node")
	}
	if features := input.Shape()[1]; features != e.numInputs {
		return nil, errors.Errorf("fwd: invalid shape for input to neural "+
			"net:\n\twant(%v)\n\thave(%v)", e.numInputs, features)
	}

	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, errors.WithMessagef(err, "fwd: could not compute "+
				"forward pass of layer %v", i)
		}
	}

	e.prediction = pred
	e.predVal = new(G.Value)
	G.Read(e.prediction, e.predVal)

	return pred, nil
}

// Output returns the output of the multiHeadMLP, a matrix of shape
// (BatchSize(), Outputs()), after the graph has been run.
func (e *multiHeadMLP) Output() G.Value {
	return *e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the multiHeadMLP
func (e *multiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *multiHeadMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	header := mlpHeader{
		Outputs:     e.numOutputs,
		Inputs:      e.numInputs,
		BatchSize:   e.batchSize,
		HiddenSizes: e.hiddenSizes,
		Biases:      e.biases,
		Activations: e.activations,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode "+
			"architecture")
	}

	for i, node := range e.Learnables() {
		data, err := values(node)
		if err != nil {
			return nil, errors.WithMessage(err, "gobEncode")
		}
		if err := enc.Encode(data); err != nil {
			return nil, errors.Wrapf(err, "gobEncode: could not encode "+
				"learnable %v", i)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *multiHeadMLP) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var header mlpHeader
	if err := dec.Decode(&header); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode architecture")
	}

	g := G.NewGraph()
	newNet, err := NewMultiHeadMLP(header.Inputs, header.BatchSize,
		header.Outputs, g, header.HiddenSizes, header.Biases, G.Zeroes(),
		header.Activations)
	if err != nil {
		return errors.WithMessage(err, "gobDecode: could not construct "+
			"new MLP")
	}
	newMLP := newNet.(*multiHeadMLP)

	for i, node := range newMLP.Learnables() {
		var data []float64
		if err := dec.Decode(&data); err != nil {
			return errors.Wrapf(err, "gobDecode: could not decode "+
				"learnable %v", i)
		}

		dest, err := values(node)
		if err != nil {
			return errors.WithMessage(err, "gobDecode")
		}
		if len(dest) != len(data) {
			return errors.Errorf("gobDecode: invalid size for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", i, len(dest), len(data))
		}
		copy(dest, data)
	}

	*e = *newMLP
	return nil
}
