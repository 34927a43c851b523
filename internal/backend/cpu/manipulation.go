package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Reshape returns a copy of x with a new shape of equal element count.
func (c *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	result, err := x.WithShape(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the dimensions of x according to axes. With no
// axes given, the dimensions are reversed.
func (c *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d does not match rank %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for tensor of rank %d", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	srcStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	// permStrides[d] is the output stride contributed by source
	// dimension d, so the inner loop can map indexes without building
	// coordinate slices.
	permStrides := make([]int, ndim)
	for outDim, srcDim := range axes {
		permStrides[srcDim] = outStrides[outDim]
	}

	es := x.DType().Size()
	src := x.Bytes()
	dst := result.Bytes()
	n := shape.NumElements()

	for i := 0; i < n; i++ {
		outIdx := 0
		remaining := i
		for d := 0; d < ndim; d++ {
			coord := remaining / srcStrides[d]
			remaining %= srcStrides[d]
			outIdx += coord * permStrides[d]
		}
		copy(dst[outIdx*es:(outIdx+1)*es], src[i*es:(i+1)*es])
	}

	return result
}

// Cat concatenates tensors along dim. All tensors must share dtype and
// every dimension except dim.
func (c *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has rank %d, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim

	result, err := tensor.NewRaw(outShape, dtype, c.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	// Row-major layout makes each [dim, inner] block contiguous, so
	// the concatenation is a series of byte-run copies.
	outer, inner := splitAt(shape, dim)
	es := dtype.Size()
	dst := result.Bytes()
	outRow := totalDim * inner * es

	offset := 0
	for _, t := range tensors {
		src := t.Bytes()
		run := t.Shape()[dim] * inner * es
		for o := 0; o < outer; o++ {
			dstOff := o*outRow + offset*inner*es
			copy(dst[dstOff:dstOff+run], src[o*run:(o+1)*run])
		}
		offset += t.Shape()[dim]
	}

	return result
}

// Chunk splits x into n equal parts along dim. The dimension size must
// be divisible by n.
func (c *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}

	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("chunk: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	dimSize := shape[dim]
	if dimSize%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d size %d not divisible by %d", dim, dimSize, n))
	}
	chunkSize := dimSize / n

	chunkShape := shape.Clone()
	chunkShape[dim] = chunkSize

	outer, inner := splitAt(shape, dim)
	es := x.DType().Size()
	src := x.Bytes()
	srcRow := dimSize * inner * es
	run := chunkSize * inner * es

	results := make([]*tensor.RawTensor, n)
	for ci := 0; ci < n; ci++ {
		chunk, err := tensor.NewRaw(chunkShape, x.DType(), c.device)
		if err != nil {
			panic(fmt.Sprintf("chunk: %v", err))
		}
		dst := chunk.Bytes()
		for o := 0; o < outer; o++ {
			srcOff := o*srcRow + ci*run
			copy(dst[o*run:(o+1)*run], src[srcOff:srcOff+run])
		}
		results[ci] = chunk
	}

	return results
}

// splitAt returns the element counts before and after dimension dim.
func splitAt(shape tensor.Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	return outer, inner
}
