package ops

import (
	"fmt"
	"math"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// CrossEntropyOp records a fused softmax + negative log likelihood loss.
// logits is [batch, classes] Float32, targets is [batch] Int32, and the
// output is a scalar mean loss.
//
// The fused backward is the textbook simplification:
//
//	dL/dlogits = (softmax(logits) - onehot(targets)) / batch
//
// scaled by the incoming gradient. Targets are class indices and carry
// no gradient, so Inputs lists only the logits.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Backward recomputes the row softmax and subtracts the one-hot target.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, tensor.Float32, op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: %v", err))
	}

	logits := op.logits.AsFloat32()
	targets := op.targets.AsInt32()
	dst := grad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0]
	scale := gradScale / float32(batch)

	for i := 0; i < batch; i++ {
		row := logits[i*classes : (i+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		probs := dst[i*classes : (i+1)*classes]
		for j, v := range row {
			p := float32(math.Exp(float64(v - maxVal)))
			probs[j] = p
			sum += p
		}

		for j := range probs {
			probs[j] /= sum
		}
		probs[targets[i]] -= 1

		for j := range probs {
			probs[j] *= scale
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [logits]. Targets take no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// CrossEntropyForward computes the mean cross entropy loss between raw
// logits and integer class targets using the log-sum-exp form, which
// stays finite for large logits. The result is a scalar Float32 tensor.
func CrossEntropyForward(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	if len(logits.Shape()) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be 2D, got %v", logits.Shape()))
	}
	if logits.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cross_entropy: logits must be Float32, got %v", logits.DType()))
	}
	if len(targets.Shape()) != 1 {
		panic(fmt.Sprintf("cross_entropy: targets must be 1D, got %v", targets.Shape()))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cross_entropy: targets must be Int32, got %v", targets.DType()))
	}

	batch, classes := logits.Shape()[0], logits.Shape()[1]
	if targets.Shape()[0] != batch {
		panic(fmt.Sprintf("cross_entropy: batch mismatch: logits %d, targets %d", batch, targets.Shape()[0]))
	}

	x := logits.AsFloat32()
	t := targets.AsInt32()

	var total float64
	for i := 0; i < batch; i++ {
		row := x[i*classes : (i+1)*classes]

		target := int(t[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0, %d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sum)

		total += logSumExp - float64(row[target])
	}

	out, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: %v", err))
	}
	out.AsFloat32()[0] = float32(total / float64(batch))
	return out
}
