package optim

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Without momentum:
//
//	param = param - lr * grad
//
// With momentum:
//
//	velocity = momentum * velocity + grad
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter]*tensor.RawTensor
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR       float32 // learning rate (default 0.01)
	Momentum float32 // momentum factor in [0, 1), 0 disables
}

// NewSGD creates an SGD optimizer over params.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Name returns "sgd".
func (s *SGD) Name() string { return "sgd" }

// Step applies one SGD update. Parameters with no gradient in the map
// are skipped; their velocity is left untouched as well.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Raw().AsFloat32()
		gradData := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
			continue
		}

		velocity, ok := s.velocities[param]
		if !ok {
			velocity = mustZerosLike(param.Raw())
			s.velocities[param] = velocity
		}
		velocityData := velocity.AsFloat32()
		for i := range paramData {
			velocityData[i] = s.momentum*velocityData[i] + gradData[i]
			paramData[i] -= s.lr * velocityData[i]
		}
	}
}

// ZeroGrad clears gradients on all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 { return s.lr }

// SetLR updates the learning rate, for scheduling.
func (s *SGD) SetLR(lr float32) { s.lr = lr }

// StateDict exports velocity buffers keyed by parameter position.
// Position keys survive duplicate parameter names, which happens when
// a model contains several layers of the same type.
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}
	for i, param := range s.params {
		if velocity, ok := s.velocities[param]; ok {
			stateDict[fmt.Sprintf("velocity.%d", i)] = velocity
		}
	}
	return stateDict
}

// LoadStateDict restores velocity buffers. Parameters without an entry
// start from zero velocity on their next step.
func (s *SGD) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}
	s.velocities = make(map[*nn.Parameter]*tensor.RawTensor)
	for i, param := range s.params {
		raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Raw().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d (%s): expected %v, got %v",
				i, param.Name(), param.Raw().Shape(), raw.Shape())
		}
		s.velocities[param] = raw.Clone()
	}
	return nil
}

// mustZerosLike allocates a zero tensor with the same shape and dtype.
func mustZerosLike(t *tensor.RawTensor) *tensor.RawTensor {
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("optim: %v", err))
	}
	return out
}
