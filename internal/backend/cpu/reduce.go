package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Sum reduces all elements of x to a scalar-shaped tensor.
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sum: unsupported dtype %s (float32 only)", x.DType()))
	}

	result, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// Argmax returns the int32 index of the maximum along dim, with dim
// removed from the output shape. Ties resolve to the lowest index.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s (float32 only)", x.DType()))
	}

	outShape := make(tensor.Shape, 0, ndim-1)
	for i := 0; i < ndim; i++ {
		if i != dim {
			outShape = append(outShape, shape[i])
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Int32, c.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsInt32()
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	// Groups are enumerated in row-major order of the output, so dst
	// can be written linearly.
	numGroups := outShape.NumElements()
	for group := 0; group < numGroups; group++ {
		base := rowBase(group, shape, strides, dim)

		maxVal := src[base]
		maxIdx := int32(0)
		for i := 1; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
				maxIdx = int32(i)
			}
		}
		dst[group] = maxIdx
	}

	return result
}
