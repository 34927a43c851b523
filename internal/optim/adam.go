package optim

import (
	"fmt"
	"math"

	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2014).
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * grad
//	v_t = beta2 * v_{t-1} + (1-beta2) * grad^2
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
type Adam struct {
	params []*nn.Parameter
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int // timestep for bias correction
	m      map[*nn.Parameter]*tensor.RawTensor
	v      map[*nn.Parameter]*tensor.RawTensor
}

// AdamConfig holds Adam hyperparameters. Zero values take the usual
// defaults: LR 0.001, Betas [0.9, 0.999], Eps 1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over params.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter]*tensor.RawTensor),
		v:      make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Name returns "adam".
func (a *Adam) Name() string { return "adam" }

// Step applies one Adam update across all parameters with gradients.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = mustZerosLike(param.Raw())
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = mustZerosLike(param.Raw())
			a.v[param] = v
		}

		paramData := param.Raw().AsFloat32()
		gradData := grad.AsFloat32()
		mData := m.AsFloat32()
		vData := v.AsFloat32()

		for i := range paramData {
			g := gradData[i]
			mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2
			paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients on all parameters.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 { return a.lr }

// SetLR updates the learning rate, for scheduling.
func (a *Adam) SetLR(lr float32) { a.lr = lr }

// GetTimestep returns the number of steps taken.
func (a *Adam) GetTimestep() int { return a.t }

// StateDict exports moment buffers keyed by parameter position, plus
// the timestep. Resuming with a stale timestep would re-apply the
// aggressive early bias correction, so "t" travels with the moments.
func (a *Adam) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	step, err := tensor.NewRaw(tensor.Shape{}, tensor.Int32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("optim: %v", err))
	}
	step.AsInt32()[0] = int32(a.t)
	stateDict["t"] = step

	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			stateDict[fmt.Sprintf("m.%d", i)] = m
		}
		if v, ok := a.v[param]; ok {
			stateDict[fmt.Sprintf("v.%d", i)] = v
		}
	}
	return stateDict
}

// LoadStateDict restores moment buffers and the timestep.
func (a *Adam) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter]*tensor.RawTensor)
	a.v = make(map[*nn.Parameter]*tensor.RawTensor)
	a.t = 0

	if step, ok := stateDict["t"]; ok {
		if step.DType() != tensor.Int32 || step.NumElements() != 1 {
			return fmt.Errorf("invalid timestep tensor: %s", step)
		}
		a.t = int(step.AsInt32()[0])
	}

	for i, param := range a.params {
		shape := param.Raw().Shape()
		if m, ok := stateDict[fmt.Sprintf("m.%d", i)]; ok {
			if !m.Shape().Equal(shape) {
				return fmt.Errorf("first moment shape mismatch for parameter %d (%s): expected %v, got %v",
					i, param.Name(), shape, m.Shape())
			}
			a.m[param] = m.Clone()
		}
		if v, ok := stateDict[fmt.Sprintf("v.%d", i)]; ok {
			if !v.Shape().Equal(shape) {
				return fmt.Errorf("second moment shape mismatch for parameter %d (%s): expected %v, got %v",
					i, param.Name(), shape, v.Shape())
			}
			a.v[param] = v.Clone()
		}
	}
	return nil
}
