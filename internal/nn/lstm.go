package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// LSTM is a multi-layer, optionally bidirectional LSTM over
// batch-first sequences.
//
// Input is [batch, seq, inputSize]; output is the full hidden sequence
// [batch, seq, dirs*hiddenSize] with the backward direction's states
// aligned to their original time steps. Hidden and cell states start
// at zero each call.
//
// There is no fused kernel: each time step is composed from taped
// tensor ops (matmul, chunk, sigmoid, tanh), so the backward pass
// through time falls out of the gradient tape. Weight shapes, gate
// order (input, forget, cell, output) and parameter names follow
// PyTorch, and every weight is initialized U(-k, k) with
// k = 1/sqrt(hiddenSize).
type LSTM struct {
	inputSize     int
	hiddenSize    int
	numLayers     int
	bidirectional bool
	cells         []*lstmCell // layer-major, forward direction first
	backend       tensor.Backend
}

// lstmCell holds the four parameter tensors of one direction of one
// layer. Gate pre-activations are stacked along the first dim:
// weightIH [4h, in], weightHH [4h, h], biases [4h].
type lstmCell struct {
	weightIH *Parameter
	weightHH *Parameter
	biasIH   *Parameter
	biasHH   *Parameter
}

// NewLSTM creates an LSTM. inputSize is the feature width of the first
// layer's input; deeper layers consume the previous layer's output.
func NewLSTM(inputSize, hiddenSize, numLayers int, bidirectional bool, rng *rand.Rand, backend tensor.Backend) *LSTM {
	if inputSize < 1 || hiddenSize < 1 || numLayers < 1 {
		panic(fmt.Sprintf("lstm: non-positive size (input %d, hidden %d, layers %d)", inputSize, hiddenSize, numLayers))
	}

	l := &LSTM{
		inputSize:     inputSize,
		hiddenSize:    hiddenSize,
		numLayers:     numLayers,
		bidirectional: bidirectional,
		backend:       backend,
	}

	bound := 1 / math.Sqrt(float64(hiddenSize))
	for layer := 0; layer < numLayers; layer++ {
		in := l.layerInputSize(layer)
		for dir := 0; dir < l.dirs(); dir++ {
			suffix := fmt.Sprintf("l%d", layer)
			if dir == 1 {
				suffix += "_reverse"
			}
			cell := &lstmCell{
				weightIH: NewParameter("weight_ih_"+suffix, Uniform(rng, bound, tensor.Shape{4 * hiddenSize, in}, backend)),
				weightHH: NewParameter("weight_hh_"+suffix, Uniform(rng, bound, tensor.Shape{4 * hiddenSize, hiddenSize}, backend)),
				biasIH:   NewParameter("bias_ih_"+suffix, Uniform(rng, bound, tensor.Shape{4 * hiddenSize}, backend)),
				biasHH:   NewParameter("bias_hh_"+suffix, Uniform(rng, bound, tensor.Shape{4 * hiddenSize}, backend)),
			}
			l.cells = append(l.cells, cell)
		}
	}
	return l
}

func (l *LSTM) dirs() int {
	if l.bidirectional {
		return 2
	}
	return 1
}

func (l *LSTM) layerInputSize(layer int) int {
	if layer == 0 {
		return l.inputSize
	}
	return l.dirs() * l.hiddenSize
}

// Forward runs the stack over input [batch, seq, inputSize] and
// returns [batch, seq, dirs*hiddenSize].
func (l *LSTM) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("lstm: expected [batch, seq, features] input, got shape %v", shape))
	}
	if shape[2] != l.inputSize {
		panic(fmt.Sprintf("lstm: expected %d input features, got %d", l.inputSize, shape[2]))
	}

	seq := input
	for layer := 0; layer < l.numLayers; layer++ {
		fwd := l.runDirection(seq, l.cells[layer*l.dirs()], false)
		if !l.bidirectional {
			seq = tensor.Cat(fwd, 1)
			continue
		}
		bwd := l.runDirection(seq, l.cells[layer*l.dirs()+1], true)
		seq = tensor.Cat([]*tensor.Tensor[float32]{
			tensor.Cat(fwd, 1),
			tensor.Cat(bwd, 1),
		}, 2)
	}
	return seq
}

// runDirection unrolls one direction of one layer and returns the
// hidden state of every time step as [batch, 1, hiddenSize] tensors in
// original time order.
func (l *LSTM) runDirection(seq *tensor.Tensor[float32], cell *lstmCell, reverse bool) []*tensor.Tensor[float32] {
	shape := seq.Shape()
	batch, steps, features := shape[0], shape[1], shape[2]

	xs := seq.Chunk(steps, 1)

	// Transposed once per call so every step reuses the same taped
	// tensors and their gradients accumulate across time.
	wihT := cell.weightIH.Tensor().Transpose() // [in, 4h]
	whhT := cell.weightHH.Tensor().Transpose() // [h, 4h]
	bias := cell.biasIH.Tensor().Add(cell.biasHH.Tensor())

	h := Zeros(tensor.Shape{batch, l.hiddenSize}, l.backend)
	c := Zeros(tensor.Shape{batch, l.hiddenSize}, l.backend)

	outputs := make([]*tensor.Tensor[float32], steps)
	for i := 0; i < steps; i++ {
		t := i
		if reverse {
			t = steps - 1 - i
		}

		xt := xs[t].Reshape(tensor.Shape{batch, features})
		gates := xt.MatMul(wihT).Add(h.MatMul(whhT)).Add(bias)

		parts := gates.Chunk(4, 1)
		inGate := parts[0].Sigmoid()
		forgetGate := parts[1].Sigmoid()
		cellGate := parts[2].Tanh()
		outGate := parts[3].Sigmoid()

		c = forgetGate.Mul(c).Add(inGate.Mul(cellGate))
		h = outGate.Mul(c.Tanh())

		outputs[t] = h.Reshape(tensor.Shape{batch, 1, l.hiddenSize})
	}
	return outputs
}

// Parameters returns all cells' parameters in PyTorch order:
// weight_ih, weight_hh, bias_ih, bias_hh per direction per layer.
func (l *LSTM) Parameters() []*Parameter {
	params := make([]*Parameter, 0, len(l.cells)*4)
	for _, cell := range l.cells {
		params = append(params, cell.weightIH, cell.weightHH, cell.biasIH, cell.biasHH)
	}
	return params
}

// StateDict returns every cell tensor keyed by its parameter name.
func (l *LSTM) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(l.cells)*4)
	for _, p := range l.Parameters() {
		stateDict[p.Name()] = p.Raw()
	}
	return stateDict
}

// LoadStateDict restores every cell tensor by parameter name.
func (l *LSTM) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range l.Parameters() {
		if err := loadInto(stateDict, p.Name(), p.Tensor()); err != nil {
			return err
		}
	}
	return nil
}
