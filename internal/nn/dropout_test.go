package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/tensor"
)

func TestDropout_EvalPassthrough(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout(0.5, testRNG(), backend)
	drop.SetTraining(false)

	x := tensor.Ones[float32](tensor.Shape{4, 4}, backend)
	out := drop.Forward(x)

	assert.Same(t, x, out)
}

func TestDropout_ZeroRatePassthrough(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout(0, testRNG(), backend)

	x := tensor.Ones[float32](tensor.Shape{4, 4}, backend)
	out := drop.Forward(x)

	assert.Same(t, x, out)
}

func TestDropout_TrainingMasksAndScales(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout(0.5, testRNG(), backend)

	x := tensor.Ones[float32](tensor.Shape{2000}, backend)
	out := drop.Forward(x)

	zeros := 0
	for _, v := range out.Data() {
		switch v {
		case 0:
			zeros++
		case 2: // 1 / (1 - 0.5)
		default:
			t.Fatalf("unexpected value %v: survivors must be scaled by 1/(1-p)", v)
		}
	}

	rate := float64(zeros) / 2000
	assert.InDelta(t, 0.5, rate, 0.05)
}

func TestDropout_InvalidRatePanics(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewDropout(1, testRNG(), backend) })
	assert.Panics(t, func() { NewDropout(-0.1, testRNG(), backend) })
}
