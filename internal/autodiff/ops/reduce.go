package ops

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// SumOp records a full reduction output = sum(input). The output is a
// scalar, so the backward broadcasts the single incoming gradient value
// across the input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Backward fills an input-shaped tensor with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad, err := tensor.NewRaw(op.input.Shape(), tensor.Float32, op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	scale := outputGrad.AsFloat32()[0]
	dst := grad.AsFloat32()
	for i := range dst {
		dst[i] = scale
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [input].
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }
