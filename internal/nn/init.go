package nn

import (
	"math"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Xavier returns a tensor initialized from the Glorot uniform
// distribution U(-b, b) with b = sqrt(6 / (fanIn + fanOut)), which
// keeps activation variance roughly constant across layers.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape, backend tensor.Backend) *tensor.Tensor[float32] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return Uniform(rng, bound, shape, backend)
}

// Uniform returns a tensor with entries drawn from U(-bound, bound).
// PyTorch initializes every LSTM weight and bias this way with
// bound = 1/sqrt(hiddenSize).
func Uniform(rng *rand.Rand, bound float64, shape tensor.Shape, backend tensor.Backend) *tensor.Tensor[float32] {
	out := tensor.Zeros[float32](shape, backend)
	data := out.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return out
}

// Zeros returns a zero-filled float32 tensor, the usual bias init.
func Zeros(shape tensor.Shape, backend tensor.Backend) *tensor.Tensor[float32] {
	return tensor.Zeros[float32](shape, backend)
}
