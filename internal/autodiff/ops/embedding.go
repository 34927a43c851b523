package ops

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// EmbeddingOp records a table lookup output = weight[indices]. Indices
// are positions, not values, so Inputs lists only the weight.
type EmbeddingOp struct {
	weight  *tensor.RawTensor
	indices *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates an EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{weight: weight, indices: indices, output: output}
}

// Backward scatter-adds the output gradient rows back into the rows of
// the weight gradient. An index appearing k times accumulates k rows.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	vocab := op.weight.Shape()[0]
	dim := op.weight.Shape()[1]

	grad, err := tensor.NewRaw(op.weight.Shape(), tensor.Float32, op.weight.Device())
	if err != nil {
		panic(fmt.Sprintf("embedding: %v", err))
	}

	indices := op.indices.AsInt32()
	g := outputGrad.AsFloat32()
	dst := grad.AsFloat32()

	for i, idx := range indices {
		if int(idx) < 0 || int(idx) >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, vocab))
		}
		row := dst[int(idx)*dim : (int(idx)+1)*dim]
		src := g[i*dim : (i+1)*dim]
		for j, v := range src {
			row[j] += v
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [weight].
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.weight} }

// Output returns the gathered rows.
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }
