package ops

import "github.com/sentio-ml/sentio/internal/tensor"

// ReLUOp records output = max(input, 0).
//
// The gradient passes through where the input was positive and is zero
// elsewhere.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the gradient by the positive entries of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask, err := tensor.NewRaw(op.input.Shape(), tensor.Float32, op.input.Device())
	if err != nil {
		panic(err)
	}
	src := op.input.AsFloat32()
	maskData := mask.AsFloat32()
	for i, v := range src {
		if v > 0 {
			maskData[i] = 1
		}
	}
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns [input].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns max(input, 0).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// SigmoidOp records output = 1 / (1 + exp(-input)).
//
// The derivative reuses the cached output: sigma * (1 - sigma).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

// Backward computes grad * sigma * (1 - sigma) from the cached output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	oneMinus := backend.Sub(ones(out.Shape(), out.Device()), out)
	deriv := backend.Mul(out, oneMinus)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}

// Inputs returns [input].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the sigmoid activation.
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

// TanhOp records output = tanh(input).
//
// The derivative reuses the cached output: 1 - tanh^2.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

// Backward computes grad * (1 - tanh^2) from the cached output.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	squared := backend.Mul(out, out)
	deriv := backend.Sub(ones(out.Shape(), out.Device()), squared)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}

// Inputs returns [input].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the tanh activation.
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
