package tensor

import (
	"fmt"
	"unsafe"
)

// Element constrains the element types a typed Tensor can carry.
type Element interface {
	float32 | int32
}

// Tensor is a typed view over a RawTensor bound to the backend that
// produced it. Operations dispatch through that backend, so a tensor
// created against the autodiff decorator participates in the gradient
// tape without the caller doing anything extra.
type Tensor[T Element] struct {
	raw     *RawTensor
	backend Backend
}

// New wraps an existing RawTensor. The raw dtype must match T.
func New[T Element](raw *RawTensor, backend Backend) *Tensor[T] {
	if raw.DType() != dtypeOf[T]() {
		panic(fmt.Sprintf("tensor: wrapping %s raw as %s Tensor", raw.DType(), dtypeOf[T]()))
	}
	return &Tensor[T]{raw: raw, backend: backend}
}

// dtypeOf maps the type parameter to its DataType tag.
func dtypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	default:
		panic("tensor: unsupported element type")
	}
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the backend this tensor dispatches through.
func (t *Tensor[T]) Backend() Backend {
	return t.backend
}

// Shape returns the tensor shape.
func (t *Tensor[T]) Shape() Shape {
	return t.raw.Shape()
}

// NumElements returns the total element count.
func (t *Tensor[T]) NumElements() int {
	return t.raw.NumElements()
}

// Data reinterprets the buffer as []T. The slice aliases the tensor;
// writes through it are visible to subsequent operations.
func (t *Tensor[T]) Data() []T {
	buf := t.raw.Bytes()
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), t.raw.NumElements())
}

// Clone returns a deep copy bound to the same backend.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return &Tensor[T]{raw: t.raw.Clone(), backend: t.backend}
}

// Add returns t + other with broadcasting.
func (t *Tensor[T]) Add(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Add(t.raw, other.raw), backend: t.backend}
}

// Sub returns t - other with broadcasting.
func (t *Tensor[T]) Sub(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sub(t.raw, other.raw), backend: t.backend}
}

// Mul returns the element-wise product with broadcasting.
func (t *Tensor[T]) Mul(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Mul(t.raw, other.raw), backend: t.backend}
}

// Div returns the element-wise quotient with broadcasting.
func (t *Tensor[T]) Div(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Div(t.raw, other.raw), backend: t.backend}
}

// MulScalar scales every element by s.
func (t *Tensor[T]) MulScalar(s float32) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.MulScalar(t.raw, s), backend: t.backend}
}

// MatMul computes the 2D matrix product.
func (t *Tensor[T]) MatMul(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.MatMul(t.raw, other.raw), backend: t.backend}
}

// BatchMatMul computes the batched 3D matrix product.
func (t *Tensor[T]) BatchMatMul(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.BatchMatMul(t.raw, other.raw), backend: t.backend}
}

// Reshape returns the tensor with a new shape of equal element count.
func (t *Tensor[T]) Reshape(shape Shape) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Reshape(t.raw, shape), backend: t.backend}
}

// Transpose permutes dimensions; without axes it reverses them.
func (t *Tensor[T]) Transpose(axes ...int) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Transpose(t.raw, axes...), backend: t.backend}
}

// Chunk splits the tensor into n equal parts along dim.
func (t *Tensor[T]) Chunk(n, dim int) []*Tensor[T] {
	raws := t.backend.Chunk(t.raw, n, dim)
	out := make([]*Tensor[T], len(raws))
	for i, raw := range raws {
		out[i] = &Tensor[T]{raw: raw, backend: t.backend}
	}
	return out
}

// Cat concatenates tensors along dim. All tensors must come from the
// same backend; the result is bound to it.
func Cat[T Element](tensors []*Tensor[T], dim int) *Tensor[T] {
	if len(tensors) == 0 {
		panic("tensor: cat of zero tensors")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	backend := tensors[0].backend
	return &Tensor[T]{raw: backend.Cat(raws, dim), backend: backend}
}

// Softmax normalizes along dim.
func (t *Tensor[T]) Softmax(dim int) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Softmax(t.raw, dim), backend: t.backend}
}

// Sigmoid applies the logistic function element-wise.
func (t *Tensor[T]) Sigmoid() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sigmoid(t.raw), backend: t.backend}
}

// Tanh applies the hyperbolic tangent element-wise.
func (t *Tensor[T]) Tanh() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Tanh(t.raw), backend: t.backend}
}

// ReLU applies max(x, 0) element-wise.
func (t *Tensor[T]) ReLU() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.ReLU(t.raw), backend: t.backend}
}

// Sum reduces all elements to a scalar-shaped tensor.
func (t *Tensor[T]) Sum() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sum(t.raw), backend: t.backend}
}

// Argmax returns int32 indexes of the maximum along dim.
func (t *Tensor[T]) Argmax(dim int) *Tensor[int32] {
	return &Tensor[int32]{raw: t.backend.Argmax(t.raw, dim), backend: t.backend}
}

// Embedding treats the tensor as a [vocab, dim] table and gathers the
// rows named by indices, producing [...indices.shape, dim].
func (t *Tensor[T]) Embedding(indices *Tensor[int32]) *Tensor[float32] {
	return &Tensor[float32]{raw: t.backend.Embedding(t.raw, indices.raw), backend: t.backend}
}

// String formats a short description, for debugging.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s](%s)", t.raw.DType(), t.raw.Shape())
}
