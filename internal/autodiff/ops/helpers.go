package ops

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// reduceBroadcast reduces a gradient to the shape of the input it
// belongs to. When the forward pass broadcast the input, its gradient
// is the output gradient summed over the broadcast dimensions.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		// Clone so accumulation never aliases a gradient shared with
		// another operation.
		return grad.Clone()
	}

	if len(target) == 0 {
		return backend.Sum(grad)
	}

	// Sum away the leading dimensions the target lacks.
	result := grad
	for len(result.Shape()) > len(target) {
		result = sumDim(result, 0, false)
	}

	// Sum along dimensions where the target broadcast from size 1.
	for i := 0; i < len(target); i++ {
		if target[i] == 1 && result.Shape()[i] > 1 {
			result = sumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// sumDim sums t along dim. With keep, the dimension stays as size 1;
// otherwise it is removed.
func sumDim(t *tensor.RawTensor, dim int, keep bool) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for tensor of rank %d", dim, len(shape)))
	}

	var outShape tensor.Shape
	if keep {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, len(shape)-1)
		for i, d := range shape {
			if i != dim {
				outShape = append(outShape, d)
			}
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumdim: %v", err))
	}

	src := t.AsFloat32()
	dst := result.AsFloat32()

	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	dimSize := shape[dim]

	for o := 0; o < outer; o++ {
		outBase := o * inner
		for i := 0; i < dimSize; i++ {
			base := (o*dimSize + i) * inner
			for j := 0; j < inner; j++ {
				dst[outBase+j] += src[base+j]
			}
		}
	}

	return result
}

// ones returns a float32 tensor of the given shape filled with 1.
func ones(shape tensor.Shape, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("ones: %v", err))
	}
	data := out.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return out
}

// sliceAlongDim copies the [offset, offset+size) range of src along dim
// into a fresh tensor.
func sliceAlongDim(src *tensor.RawTensor, dim, offset, size int) *tensor.RawTensor {
	shape := src.Shape()
	outShape := shape.Clone()
	outShape[dim] = size

	out, err := tensor.NewRaw(outShape, src.DType(), src.Device())
	if err != nil {
		panic(fmt.Sprintf("slice: %v", err))
	}

	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	es := src.DType().Size()
	srcB := src.Bytes()
	dstB := out.Bytes()
	srcRow := shape[dim] * inner * es
	run := size * inner * es

	for o := 0; o < outer; o++ {
		srcOff := o*srcRow + offset*inner*es
		copy(dstB[o*run:(o+1)*run], srcB[srcOff:srcOff+run])
	}

	return out
}
