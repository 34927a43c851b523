// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation caches the tensors from its forward
// pass and knows how to turn the gradient of its output into gradients
// for its inputs.
//
// Operations are recorded by the autodiff backend during the forward
// pass and replayed in reverse by the tape. The backend handed to
// Backward is the plain compute backend, so gradient math is never
// itself recorded.
package ops

import "github.com/sentio-ml/sentio/internal/tensor"

// Operation is one node of the recorded computation.
type Operation interface {
	// Backward computes gradients for the inputs given the gradient of
	// the output. The returned slice is parallel to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors gradients flow back to.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor this operation produced.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an operation with several outputs, such as
// Chunk. The tape collects gradients for every output before calling
// BackwardMulti; outputs that received no gradient get zeros.
type MultiOutputOperation interface {
	Operation

	// Outputs returns all tensors this operation produced.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes input gradients given a gradient for each
	// output, in the same order as Outputs().
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
