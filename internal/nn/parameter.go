package nn

import (
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Parameter is a trainable tensor together with the gradient computed
// for it during the backward pass.
//
// The gradient is stored raw: the tape's Backward returns raw tensors
// keyed by identity, and the optimizer consumes them the same way.
type Parameter struct {
	name   string
	tensor *tensor.Tensor[float32]
	grad   *tensor.RawTensor
}

// NewParameter wraps an initialized tensor as a named parameter. The
// gradient starts nil and is set after the first backward pass.
func NewParameter(name string, t *tensor.Tensor[float32]) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name, e.g. "weight_ih_l0".
func (p *Parameter) Name() string { return p.name }

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor[float32] { return p.tensor }

// Raw returns the underlying raw tensor. This is the identity the
// gradient tape keys on.
func (p *Parameter) Raw() *tensor.RawTensor { return p.tensor.Raw() }

// Grad returns the last computed gradient, or nil before the first
// backward pass.
func (p *Parameter) Grad() *tensor.RawTensor { return p.grad }

// SetGrad stores the gradient for the next optimizer step.
func (p *Parameter) SetGrad(grad *tensor.RawTensor) { p.grad = grad }

// ZeroGrad drops the stored gradient. Call before each training step
// so stale gradients never leak into the next update.
func (p *Parameter) ZeroGrad() { p.grad = nil }
