package autodiff

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Backward differentiates loss with respect to everything on the tape.
//
// The pass is seeded with dL/dL = 1 and runs on the inner backend, so
// none of the gradient math lands back on the tape. The returned map is
// keyed by raw tensor identity; look up a parameter's gradient with its
// Raw() pointer. The tape is left intact so the caller decides when to
// Clear.
func Backward(loss *tensor.Tensor[float32], b *Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	raw := loss.Raw()

	seed, err := tensor.NewRaw(raw.Shape(), tensor.Float32, raw.Device())
	if err != nil {
		panic(fmt.Sprintf("autodiff: %v", err))
	}
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}

	return b.tape.Backward(raw, seed, b.inner)
}
