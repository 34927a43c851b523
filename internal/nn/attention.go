package nn

import (
	"fmt"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// maskValue is added to attention scores at padded positions. After
// softmax those positions carry effectively zero weight.
const maskValue = -1e9

// SelfAttention is the structured self-attention pooling of Lin et al.
// (2017): a small two-layer projection scores every time step for each
// of `heads` attention rows, and the rows' softmax weights pool the
// hidden sequence into a fixed-size matrix.
//
//	A = softmax(W_s2 tanh(W_s1 H^T) + mask)   [batch, heads, seq]
//	M = A H                                   [batch, heads, inDim]
//
// Neither projection carries a bias.
type SelfAttention struct {
	inDim   int
	projDim int
	heads   int
	ws1     *Linear // [projDim, inDim]
	ws2     *Linear // [heads, projDim]
}

// NewSelfAttention creates the attention block. inDim is the hidden
// width being pooled, projDim the internal projection width, heads the
// number of attention rows.
func NewSelfAttention(inDim, projDim, heads int, rng *rand.Rand, backend tensor.Backend) *SelfAttention {
	return &SelfAttention{
		inDim:   inDim,
		projDim: projDim,
		heads:   heads,
		ws1:     NewLinearNoBias(inDim, projDim, rng, backend),
		ws2:     NewLinearNoBias(projDim, heads, rng, backend),
	}
}

// Forward pools hidden [batch, seq, inDim] with mask [batch, 1, seq]
// and returns the pooled matrix [batch, heads, inDim] together with
// the attention weights [batch, heads, seq]. The mask is additive:
// zero on real positions, maskValue on padded ones.
func (a *SelfAttention) Forward(hidden, mask *tensor.Tensor[float32]) (*tensor.Tensor[float32], *tensor.Tensor[float32]) {
	shape := hidden.Shape()
	if len(shape) != 3 || shape[2] != a.inDim {
		panic(fmt.Sprintf("attention: expected [batch, seq, %d] hidden, got shape %v", a.inDim, shape))
	}
	maskShape := mask.Shape()
	if len(maskShape) != 3 || maskShape[0] != shape[0] || maskShape[1] != 1 || maskShape[2] != shape[1] {
		panic(fmt.Sprintf("attention: expected [%d, 1, %d] mask, got shape %v", shape[0], shape[1], maskShape))
	}

	scores := a.ws2.Forward(a.ws1.Forward(hidden).Tanh()) // [b, seq, heads]
	scores = scores.Transpose(0, 2, 1)                    // [b, heads, seq]
	scores = scores.Add(mask)                             // broadcast across heads

	weights := scores.Softmax(2)
	pooled := weights.BatchMatMul(hidden)
	return pooled, weights
}

// LengthMask builds the additive attention mask [batch, 1, maxLen]
// from per-example lengths: 0 where t < length, maskValue where the
// position is padding.
func LengthMask(lengths *tensor.Tensor[int32], maxLen int, backend tensor.Backend) *tensor.Tensor[float32] {
	ls := lengths.Data()
	mask := tensor.Zeros[float32](tensor.Shape{len(ls), 1, maxLen}, backend)
	data := mask.Data()
	for i, length := range ls {
		row := data[i*maxLen : (i+1)*maxLen]
		for t := int(length); t < maxLen; t++ {
			row[t] = maskValue
		}
	}
	return mask
}

// Parameters returns both projections' weights.
func (a *SelfAttention) Parameters() []*Parameter {
	return append(a.ws1.Parameters(), a.ws2.Parameters()...)
}

// StateDict returns the projections under "ws1." and "ws2." prefixes.
func (a *SelfAttention) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range a.ws1.StateDict() {
		stateDict["ws1."+name] = raw
	}
	for name, raw := range a.ws2.StateDict() {
		stateDict["ws2."+name] = raw
	}
	return stateDict
}

// LoadStateDict restores both projections.
func (a *SelfAttention) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := a.ws1.LoadStateDict(subDict(stateDict, "ws1.")); err != nil {
		return fmt.Errorf("ws1: %w", err)
	}
	if err := a.ws2.LoadStateDict(subDict(stateDict, "ws2.")); err != nil {
		return fmt.Errorf("ws2: %w", err)
	}
	return nil
}
