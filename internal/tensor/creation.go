package tensor

import (
	"fmt"
	"math/rand"
)

// FromSlice builds a tensor from data laid out row-major in the given
// shape. The data is copied.
func FromSlice[T Element](data []T, shape Shape, backend Backend) (*Tensor[T], error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	raw, err := NewRaw(shape, dtypeOf[T](), backend.Device())
	if err != nil {
		return nil, err
	}

	out := &Tensor[T]{raw: raw, backend: backend}
	copy(out.Data(), data)
	return out, nil
}

// Zeros returns a zero-filled tensor.
func Zeros[T Element](shape Shape, backend Backend) *Tensor[T] {
	raw, err := NewRaw(shape, dtypeOf[T](), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("tensor: zeros: %v", err))
	}
	return &Tensor[T]{raw: raw, backend: backend}
}

// Ones returns a tensor filled with 1.
func Ones[T Element](shape Shape, backend Backend) *Tensor[T] {
	out := Zeros[T](shape, backend)
	data := out.Data()
	for i := range data {
		data[i] = 1
	}
	return out
}

// Full returns a tensor filled with value.
func Full[T Element](shape Shape, value T, backend Backend) *Tensor[T] {
	out := Zeros[T](shape, backend)
	data := out.Data()
	for i := range data {
		data[i] = value
	}
	return out
}

// Randn returns a float32 tensor of standard-normal samples drawn from
// the package-level source. For reproducible initialization, model
// construction uses its own seeded source instead.
func Randn(shape Shape, backend Backend) *Tensor[float32] {
	out := Zeros[float32](shape, backend)
	data := out.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}
	return out
}
