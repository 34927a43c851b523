package nn

import (
	"fmt"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W^T + b.
//
// The weight has shape [outFeatures, inFeatures] and the optional bias
// [outFeatures], matching the PyTorch layout. Weights are Xavier
// initialized, biases start at zero.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter // nil when constructed without bias
	backend     tensor.Backend
}

// NewLinear creates a Linear layer with a bias.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand, backend tensor.Backend) *Linear {
	l := NewLinearNoBias(inFeatures, outFeatures, rng, backend)
	l.bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	return l
}

// NewLinearNoBias creates a Linear layer without a bias term. The
// attention projections use this form.
func NewLinearNoBias(inFeatures, outFeatures int, rng *rand.Rand, backend tensor.Backend) *Linear {
	weight := Xavier(rng, inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		backend:     backend,
	}
}

// Forward applies the layer to a [batch, in] or [batch, seq, in]
// input. The 3D form folds batch and sequence together for the matmul
// and restores them afterwards, so the same weights apply per position.
func (l *Linear) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	shape := input.Shape()
	wT := l.weight.Tensor().Transpose() // [in, out]

	switch len(shape) {
	case 2:
		if shape[1] != l.inFeatures {
			panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[1]))
		}
		out := input.MatMul(wT)
		if l.bias != nil {
			out = out.Add(l.bias.Tensor())
		}
		return out
	case 3:
		if shape[2] != l.inFeatures {
			panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[2]))
		}
		flat := input.Reshape(tensor.Shape{shape[0] * shape[1], shape[2]})
		out := flat.MatMul(wT)
		if l.bias != nil {
			out = out.Add(l.bias.Tensor())
		}
		return out.Reshape(tensor.Shape{shape[0], shape[1], l.outFeatures})
	default:
		panic(fmt.Sprintf("linear: expected 2D or 3D input, got shape %v", shape))
	}
}

// Parameters returns [weight] or [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter, nil for the no-bias form.
func (l *Linear) Bias() *Parameter { return l.bias }

// StateDict returns the layer's tensors under "weight" and "bias".
func (l *Linear) StateDict() map[string]*tensor.RawTensor {
	stateDict := map[string]*tensor.RawTensor{"weight": l.weight.Raw()}
	if l.bias != nil {
		stateDict["bias"] = l.bias.Raw()
	}
	return stateDict
}

// LoadStateDict restores the layer's tensors from stateDict.
func (l *Linear) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadInto(stateDict, "weight", l.weight.Tensor()); err != nil {
		return err
	}
	if l.bias != nil {
		return loadInto(stateDict, "bias", l.bias.Tensor())
	}
	return nil
}
