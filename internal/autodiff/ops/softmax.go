package ops

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// SoftmaxOp records output = softmax(input) along dim.
//
// For each row along dim, with y the cached output and g the output
// gradient:
//
//	grad_j = y_j * (g_j - sum_i g_i * y_i)
//
// The dot term comes from the off-diagonal entries of the softmax
// Jacobian.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a SoftmaxOp. dim must be normalized.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output, dim: dim}
}

// Backward computes the softmax gradient row by row along dim.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()

	inputGrad, err := tensor.NewRaw(shape, tensor.Float32, op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	y := op.output.AsFloat32()
	g := outputGrad.AsFloat32()
	dst := inputGrad.AsFloat32()

	outer, inner := 1, 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	dimSize := shape[op.dim]

	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			base := o*dimSize*inner + j

			var dot float32
			for i := 0; i < dimSize; i++ {
				idx := base + i*inner
				dot += g[idx] * y[idx]
			}

			for i := 0; i < dimSize; i++ {
				idx := base + i*inner
				dst[idx] = y[idx] * (g[idx] - dot)
			}
		}
	}

	return []*tensor.RawTensor{inputGrad}
}

// Inputs returns [input].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the softmax probabilities.
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
