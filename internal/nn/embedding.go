package nn

import (
	"fmt"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Embedding maps int32 token indices to dense vectors through a
// [numEmbed, embedDim] lookup table.
//
// Index 0 is the padding sentinel throughout this codebase; the
// pretrained tables written by the prepare step keep row 0 zeroed so
// padded positions embed to the zero vector.
type Embedding struct {
	weight   *Parameter
	numEmbed int
	embedDim int
	frozen   bool
}

// NewEmbedding creates an embedding with weights drawn from N(0, 1)
// and the padding row zeroed.
func NewEmbedding(numEmbed, embedDim int, rng *rand.Rand, backend tensor.Backend) *Embedding {
	weight := tensor.Zeros[float32](tensor.Shape{numEmbed, embedDim}, backend)
	data := weight.Data()
	for i := embedDim; i < len(data); i++ { // row 0 stays zero
		data[i] = float32(rng.NormFloat64())
	}
	return &Embedding{
		weight:   NewParameter("weight", weight),
		numEmbed: numEmbed,
		embedDim: embedDim,
	}
}

// NewEmbeddingWithWeight creates an embedding over a pretrained
// [numEmbed, embedDim] table. With frozen true the table is excluded
// from Parameters and never updated; the classifier uses this for its
// pretrained word vectors.
func NewEmbeddingWithWeight(weight *tensor.Tensor[float32], frozen bool) *Embedding {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", shape))
	}
	return &Embedding{
		weight:   NewParameter("weight", weight),
		numEmbed: shape[0],
		embedDim: shape[1],
		frozen:   frozen,
	}
}

// Forward gathers the embedding row for every index, producing
// [...indices.shape, embedDim]. The lookup is recorded on the tape, so
// an unfrozen table receives scatter-add gradients.
func (e *Embedding) Forward(indices *tensor.Tensor[int32]) *tensor.Tensor[float32] {
	return e.weight.Tensor().Embedding(indices)
}

// Frozen reports whether the table is excluded from training.
func (e *Embedding) Frozen() bool { return e.frozen }

// Weight returns the table parameter.
func (e *Embedding) Weight() *Parameter { return e.weight }

// Parameters returns [weight], or nothing when frozen.
func (e *Embedding) Parameters() []*Parameter {
	if e.frozen {
		return nil
	}
	return []*Parameter{e.weight}
}

// StateDict returns the table under "weight", frozen or not.
func (e *Embedding) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{"weight": e.weight.Raw()}
}

// LoadStateDict restores the table from stateDict.
func (e *Embedding) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadInto(stateDict, "weight", e.weight.Tensor())
}
