package optim

import (
	"math"

	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// ClipGradNorm rescales all gradients in place so their combined L2
// norm does not exceed maxNorm. Returns the norm measured before
// clipping. A maxNorm <= 0 leaves the gradients untouched.
//
// The norm is taken over every gradient of every parameter jointly,
// matching the usual clip_grad_norm_ semantics.
func ClipGradNorm(params []*nn.Parameter, grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float32) float32 {
	var total float64
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		for _, g := range grad.AsFloat32() {
			total += float64(g) * float64(g)
		}
	}
	norm := math.Sqrt(total)

	if maxNorm <= 0 || norm <= float64(maxNorm) {
		return float32(norm)
	}

	scale := float32(float64(maxNorm) / (norm + 1e-6))
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		data := grad.AsFloat32()
		for i := range data {
			data[i] *= scale
		}
	}
	return float32(norm)
}
