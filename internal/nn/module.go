// Package nn implements the neural network layers of the sentio
// classifier.
//
// Building blocks:
//   - Module: shared parameter and state contract for all layers
//   - Parameter: a trainable tensor with its gradient
//   - Linear: fully connected layer, with or without bias
//   - Embedding: lookup table with pretrained weights and freezing
//   - Dropout: inverted dropout applied through the gradient tape
//   - LSTM: multi-layer bidirectional LSTM built from taped ops
//   - SelfAttention: structured self-attention pooling with length masking
//
// Layers follow PyTorch semantics wherever the two overlap (gate order,
// weight layouts, state dict names), so weights trained elsewhere
// transfer without surprises.
package nn

import (
	"fmt"
	"strings"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Module is the contract every layer shares.
//
// Forward is not part of it: input types differ per layer (Embedding
// consumes int32 indices, LSTM consumes float32 sequences), so each
// layer exposes its own typed Forward method.
type Module interface {
	// Parameters returns the trainable parameters, nested modules
	// included. Frozen weights are excluded.
	Parameters() []*Parameter

	// StateDict returns every persistent tensor keyed by name, frozen
	// weights included so checkpoints are self-contained.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies entries into the module's tensors, matched
	// by name. Missing entries and shape or dtype mismatches are
	// errors.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// subDict returns the stateDict entries under prefix with the prefix
// stripped, for handing down to nested modules.
func subDict(stateDict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if strings.HasPrefix(name, prefix) {
			out[strings.TrimPrefix(name, prefix)] = raw
		}
	}
	return out
}

// loadInto copies the named stateDict entry into dst after validating
// shape and dtype.
func loadInto(stateDict map[string]*tensor.RawTensor, name string, dst *tensor.Tensor[float32]) error {
	raw, ok := stateDict[name]
	if !ok {
		return fmt.Errorf("missing %q in state dict", name)
	}
	if !raw.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst.Data(), raw.AsFloat32())
	return nil
}
