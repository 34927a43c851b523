// Package optim implements the optimization algorithms used to train
// the classifier: SGD with momentum and Adam, plus global gradient
// norm clipping.
//
// Optimizers consume the gradient map produced by autodiff.Backward
// and update parameters in place:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	loss := model.Forward(batch, lengths)          // recorded on the tape
//	grads := autodiff.Backward(loss, backend)
//	optim.ClipGradNorm(model.Parameters(), grads, 5.0)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Optimizer updates model parameters from computed gradients. It is a
// superset of nn.OptimizerState, so any optimizer can be serialized
// into a checkpoint.
type Optimizer interface {
	// Name identifies the algorithm, e.g. "sgd" or "adam".
	Name() string

	// Step applies one update to every parameter that has a gradient
	// in the map. Parameters absent from the map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores state saved by StateDict.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// getGradient looks up the gradient for a parameter. Returns nil when
// the parameter was not part of the recorded computation.
func getGradient(param *nn.Parameter, grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Raw()]
}
