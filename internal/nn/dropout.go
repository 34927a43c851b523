package nn

import (
	"fmt"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Dropout zeroes each element with probability p during training and
// scales the survivors by 1/(1-p), so the expected activation is
// unchanged and evaluation needs no rescaling (inverted dropout).
//
// The mask is applied with a taped multiply, which makes the backward
// pass drop exactly the gradients of the zeroed elements.
type Dropout struct {
	p        float32
	rng      *rand.Rand
	training bool
	backend  tensor.Backend
}

// NewDropout creates a Dropout layer in training mode. p must lie in
// [0, 1).
func NewDropout(p float32, rng *rand.Rand, backend tensor.Backend) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: p must be in [0, 1), got %v", p))
	}
	return &Dropout{p: p, rng: rng, training: true, backend: backend}
}

// Forward applies the dropout mask. Outside training mode, or with
// p = 0, the input passes through untouched.
func (d *Dropout) Forward(x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if !d.training || d.p == 0 {
		return x
	}

	mask := tensor.Zeros[float32](x.Shape(), d.backend)
	scale := 1 / (1 - d.p)
	data := mask.Data()
	for i := range data {
		if d.rng.Float32() >= d.p {
			data[i] = scale
		}
	}
	return x.Mul(mask)
}

// SetTraining switches between training and evaluation behavior.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Training reports whether the layer is in training mode.
func (d *Dropout) Training() bool { return d.training }

// Parameters returns nothing; dropout has no trainable state.
func (d *Dropout) Parameters() []*Parameter { return nil }

// StateDict returns an empty map.
func (d *Dropout) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *Dropout) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
