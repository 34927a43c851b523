package ops

import "github.com/sentio-ml/sentio/internal/tensor"

// CatOp records output = cat(inputs, dim).
//
// The backward pass slices the output gradient at the input boundaries
// and hands each input its own piece.
type CatOp struct {
	inputs []*tensor.RawTensor
	dim    int
	sizes  []int
	output *tensor.RawTensor
}

// NewCatOp creates a CatOp. dim must be normalized and sizes holds each
// input's extent along dim.
func NewCatOp(inputs []*tensor.RawTensor, dim int, sizes []int, output *tensor.RawTensor) *CatOp {
	return &CatOp{inputs: inputs, dim: dim, sizes: sizes, output: output}
}

// Backward splits the output gradient back into per-input gradients.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, size := range op.sizes {
		grads[i] = sliceAlongDim(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

// Inputs returns the concatenated tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the concatenated result.
func (op *CatOp) Output() *tensor.RawTensor { return op.output }

// ChunkOp records outputs = chunk(input, n, dim). It is the inverse of
// Cat and the tape's only multi-output operation: timestep splitting
// and gate splitting both go through it.
type ChunkOp struct {
	input   *tensor.RawTensor
	n       int
	dim     int
	outputs []*tensor.RawTensor
}

// NewChunkOp creates a ChunkOp. dim must be normalized.
func NewChunkOp(input *tensor.RawTensor, n, dim int, outputs []*tensor.RawTensor) *ChunkOp {
	return &ChunkOp{input: input, n: n, dim: dim, outputs: outputs}
}

// Inputs returns [input].
func (op *ChunkOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the first chunk. The tape recognizes the operation as
// multi-output through Outputs and never routes gradients through this
// accessor alone.
func (op *ChunkOp) Output() *tensor.RawTensor { return op.outputs[0] }

// Outputs returns every chunk.
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.outputs }

// Backward is unusable for a multi-output operation; the tape must call
// BackwardMulti.
func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("chunk: multi-output operation requires BackwardMulti")
}

// BackwardMulti concatenates the chunk gradients back together.
func (op *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(outputGrads) != op.n {
		panic("chunk: expected one gradient per chunk")
	}
	return []*tensor.RawTensor{backend.Cat(outputGrads, op.dim)}
}
