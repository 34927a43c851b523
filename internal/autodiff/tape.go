package autodiff

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/autodiff/ops"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Tape records operations during the forward pass and replays them in
// reverse to compute gradients.
//
// Recording is explicit: nothing is captured until StartRecording, and
// evaluation code (or the backward pass itself) runs with recording
// off. The tape holds raw tensor identities, so gradients are keyed by
// the exact *RawTensor pointers that flowed through the forward pass.
type Tape struct {
	operations []ops.Operation
	recording  bool
}

// NewTape creates an empty tape with recording off.
func NewTape() *Tape {
	return &Tape{}
}

// StartRecording begins capturing operations.
func (t *Tape) StartRecording() { t.recording = true }

// StopRecording stops capturing operations.
func (t *Tape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are being captured.
func (t *Tape) IsRecording() bool { return t.recording }

// Record appends an operation if recording is on.
func (t *Tape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. Call between training steps.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	return len(t.operations)
}

// Backward walks the tape in reverse from output, seeded with
// outputGrad, and returns the gradient for every tensor reached.
//
// Gradients for tensors feeding multiple operations accumulate by
// addition. Operations whose output never received a gradient are
// skipped: they do not contribute to the seeded output.
func (t *Tape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[output] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		var inputGrads []*tensor.RawTensor
		if multi, ok := op.(ops.MultiOutputOperation); ok {
			outputGrads, any := collectOutputGrads(multi, grads)
			if !any {
				continue
			}
			fillMissingGradsWithZeros(multi, outputGrads)
			inputGrads = multi.BackwardMulti(outputGrads, backend)
		} else {
			grad, ok := grads[op.Output()]
			if !ok {
				continue
			}
			inputGrads = op.Backward(grad, backend)
		}

		inputs := op.Inputs()
		if len(inputGrads) != len(inputs) {
			panic(fmt.Sprintf("autodiff: %T returned %d gradients for %d inputs", op, len(inputGrads), len(inputs)))
		}
		for j, input := range inputs {
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}

// collectOutputGrads gathers the gradient for each output of a
// multi-output operation. The second result reports whether any output
// received one.
func collectOutputGrads(op ops.MultiOutputOperation, grads map[*tensor.RawTensor]*tensor.RawTensor) ([]*tensor.RawTensor, bool) {
	outputs := op.Outputs()
	outputGrads := make([]*tensor.RawTensor, len(outputs))
	any := false
	for i, out := range outputs {
		if g, ok := grads[out]; ok {
			outputGrads[i] = g
			any = true
		}
	}
	return outputGrads, any
}

// fillMissingGradsWithZeros replaces nil entries with zero tensors so
// the multi-output backward sees a full set. An unused chunk output
// contributes nothing, which is exactly a zero gradient.
func fillMissingGradsWithZeros(op ops.MultiOutputOperation, outputGrads []*tensor.RawTensor) {
	for i, g := range outputGrads {
		if g != nil {
			continue
		}
		out := op.Outputs()[i]
		zero, err := tensor.NewRaw(out.Shape(), out.DType(), out.Device())
		if err != nil {
			panic(fmt.Sprintf("autodiff: %v", err))
		}
		outputGrads[i] = zero
	}
}
