package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// MulScalar multiplies every element of x by scalar.
func (c *Backend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s (float32 only)", x.DType()))
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("mulscalar: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = v * scalar
	}
	return result
}
