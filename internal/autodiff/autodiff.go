// Package autodiff provides reverse-mode automatic differentiation as
// a decorator over a plain compute backend.
//
// The Backend here satisfies the same tensor.Backend interface as the
// backend it wraps. Every operation delegates the forward computation
// to the inner backend and, while the tape is recording, captures an
// operation that knows how to push gradients back through it. Training
// code computes a scalar loss, calls Backward, and reads gradients out
// of the returned map keyed by parameter tensors.
//
// Argmax is the one interface operation that is never recorded: it
// produces integer indices and has no useful gradient.
package autodiff

import (
	"github.com/sentio-ml/sentio/internal/autodiff/ops"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Backend wraps an inner compute backend with gradient recording.
type Backend struct {
	inner tensor.Backend
	tape  *Tape
}

// New wraps inner with a fresh, non-recording tape.
func New(inner tensor.Backend) *Backend {
	return &Backend{inner: inner, tape: NewTape()}
}

// Tape returns the gradient tape.
func (b *Backend) Tape() *Tape { return b.tape }

// Inner returns the wrapped compute backend. Backward passes run
// gradient math on it directly so they are never themselves recorded.
func (b *Backend) Inner() tensor.Backend { return b.inner }

// Name returns the inner backend's name wrapped in "autodiff(...)".
func (b *Backend) Name() string { return "autodiff(" + b.inner.Name() + ")" }

// Device returns the inner backend's device.
func (b *Backend) Device() tensor.Device { return b.inner.Device() }

// Add computes a + b and records an AddOp.
func (b *Backend) Add(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Add(a, x)
	b.tape.Record(ops.NewAddOp(a, x, out))
	return out
}

// Sub computes a - b and records a SubOp.
func (b *Backend) Sub(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sub(a, x)
	b.tape.Record(ops.NewSubOp(a, x, out))
	return out
}

// Mul computes a * b and records a MulOp.
func (b *Backend) Mul(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Mul(a, x)
	b.tape.Record(ops.NewMulOp(a, x, out))
	return out
}

// Div computes a / b and records a DivOp.
func (b *Backend) Div(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Div(a, x)
	b.tape.Record(ops.NewDivOp(a, x, out))
	return out
}

// MulScalar scales x and records a MulScalarOp.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	out := b.inner.MulScalar(x, scalar)
	b.tape.Record(ops.NewMulScalarOp(x, out, scalar))
	return out
}

// MatMul computes the 2D matrix product and records a MatMulOp.
func (b *Backend) MatMul(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.MatMul(a, x)
	b.tape.Record(ops.NewMatMulOp(a, x, out))
	return out
}

// BatchMatMul computes the batched product and records a BatchMatMulOp.
func (b *Backend) BatchMatMul(a, x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.BatchMatMul(a, x)
	b.tape.Record(ops.NewBatchMatMulOp(a, x, out))
	return out
}

// Reshape copies x into a new shape and records a ReshapeOp.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(x, shape)
	b.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

// Transpose permutes dimensions and records a TransposeOp. The default
// reversed axes are made explicit before recording so the backward pass
// always inverts a concrete permutation.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if len(axes) == 0 {
		ndim := len(x.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	out := b.inner.Transpose(x, axes...)
	b.tape.Record(ops.NewTransposeOp(x, out, axes))
	return out
}

// Cat concatenates tensors along dim and records a CatOp that remembers
// each input's extent so the gradient can be sliced back apart.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if dim < 0 && len(tensors) > 0 {
		dim += len(tensors[0].Shape())
	}
	out := b.inner.Cat(tensors, dim)
	if b.tape.IsRecording() {
		sizes := make([]int, len(tensors))
		for i, t := range tensors {
			sizes[i] = t.Shape()[dim]
		}
		b.tape.Record(ops.NewCatOp(tensors, dim, sizes, out))
	}
	return out
}

// Chunk splits x into n parts along dim and records a ChunkOp, the
// tape's only multi-output operation.
func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	if dim < 0 {
		dim += len(x.Shape())
	}
	outs := b.inner.Chunk(x, n, dim)
	b.tape.Record(ops.NewChunkOp(x, n, dim, outs))
	return outs
}

// Softmax normalizes along dim and records a SoftmaxOp.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if dim < 0 {
		dim += len(x.Shape())
	}
	out := b.inner.Softmax(x, dim)
	b.tape.Record(ops.NewSoftmaxOp(x, out, dim))
	return out
}

// Sigmoid applies the logistic function and records a SigmoidOp.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sigmoid(x)
	b.tape.Record(ops.NewSigmoidOp(x, out))
	return out
}

// Tanh applies the hyperbolic tangent and records a TanhOp.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Tanh(x)
	b.tape.Record(ops.NewTanhOp(x, out))
	return out
}

// ReLU applies max(x, 0) and records a ReLUOp.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, out))
	return out
}

// Sum reduces x to a scalar and records a SumOp.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, out))
	return out
}

// Argmax delegates without recording.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Embedding gathers rows of weight and records an EmbeddingOp.
func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Embedding(weight, indices)
	b.tape.Record(ops.NewEmbeddingOp(weight, indices, out))
	return out
}

// CrossEntropy computes the mean cross entropy between [batch, classes]
// logits and [batch] int32 class targets, recording the fused op. This
// is the loss the training loop differentiates, so it lives on the
// autodiff backend rather than the compute interface.
func (b *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	out := ops.CrossEntropyForward(logits, targets)
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out))
	return out
}
