package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Embedding gathers rows of weight [V, d] by int32 indices, producing a
// tensor of shape indices.Shape() + [d].
func (c *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if weight.DType() != tensor.Float32 {
		panic(fmt.Sprintf("embedding: weight dtype %s, expected float32", weight.DType()))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices dtype %s, expected int32", indices.DType()))
	}

	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [vocab, dim], got %v", wShape))
	}
	vocab, dim := wShape[0], wShape[1]

	outShape := append(indices.Shape().Clone(), dim)
	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("embedding: %v", err))
	}

	wData := weight.AsFloat32()
	idxData := indices.AsInt32()
	dst := result.AsFloat32()

	for i, idx := range idxData {
		if idx < 0 || int(idx) >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, vocab))
		}
		copy(dst[i*dim:(i+1)*dim], wData[int(idx)*dim:(int(idx)+1)*dim])
	}

	return result
}
