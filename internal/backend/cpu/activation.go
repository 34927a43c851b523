package cpu

import (
	"fmt"
	"math"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Softmax normalizes x along dim: exp(x_i - max) / sum_j exp(x_j - max).
// Shifting by the row max keeps large logits from overflowing exp.
func (c *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s (float32 only)", x.DType()))
	}

	result, err := tensor.NewRaw(shape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	numRows := 1
	for i := range shape {
		if i != dim {
			numRows *= shape[i]
		}
	}

	for row := 0; row < numRows; row++ {
		base := rowBase(row, shape, strides, dim)

		maxVal := float32(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for i := 0; i < dimSize; i++ {
			idx := base + i*dimStride
			e := float32(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}

		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] /= sum
		}
	}

	return result
}

// rowBase maps a row ordinal to the flat base index of the row's first
// element, enumerating the non-dim coordinates in row-major order.
func rowBase(row int, shape tensor.Shape, strides []int, dim int) int {
	base := 0
	remaining := row
	for i := len(shape) - 1; i >= 0; i-- {
		if i == dim {
			continue
		}
		coord := remaining % shape[i]
		remaining /= shape[i]
		base += coord * strides[i]
	}
	return base
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (c *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("sigmoid", x, func(v float32) float32 {
		return float32(1 / (1 + math.Exp(-float64(v))))
	})
}

// Tanh computes the hyperbolic tangent element-wise.
func (c *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// ReLU computes max(x, 0) element-wise.
func (c *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// unaryOp applies op element-wise over a float32 tensor.
func (c *Backend) unaryOp(name string, x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (float32 only)", name, x.DType()))
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = op(v)
	}
	return result
}
