// Package model implements the structured self-attentive sentence
// classifier: a frozen pretrained embedding, a bidirectional LSTM
// encoder, multi-head self-attention pooling and a two-layer MLP head.
//
// The training harness only sees the Model Boundary methods (Forward,
// Parameters, StateDict, LoadStateDict, SetTraining), so the
// architecture here can change without touching the training loop.
package model

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// NumClasses is the classifier's output width. Labels are 0 or 1.
const NumClasses = 2

// Config holds the architecture hyperparameters.
type Config struct {
	VocabSize int // rows of the embedding table, padding row included
	EmbedDim  int // d: embedding width
	HiddenDim int // u: LSTM width per direction, reused as the MLP width
	AttnDim   int // da: attention projection width
	AttnHeads int // r: attention rows pooled over the sequence
	Layers    int // stacked LSTM layers
	MaxLen    int // padded sequence length
	Dropout   float32

	// FreezeEmbeddings keeps the pretrained table out of Parameters so
	// the optimizer never updates it. Checkpoints still include it.
	FreezeEmbeddings bool
}

// Validate rejects non-positive dimensions and dropout outside [0, 1).
func (c Config) Validate() error {
	dims := []struct {
		name  string
		value int
	}{
		{"vocab size", c.VocabSize},
		{"embedding dim", c.EmbedDim},
		{"hidden dim", c.HiddenDim},
		{"attention dim", c.AttnDim},
		{"attention heads", c.AttnHeads},
		{"layers", c.Layers},
		{"max len", c.MaxLen},
	}
	for _, d := range dims {
		if d.value < 1 {
			return fmt.Errorf("%s is %d, expected >= 1", d.name, d.value)
		}
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("dropout is %v, expected in [0, 1)", c.Dropout)
	}
	return nil
}

// Classifier scores padded token batches into NumClasses classes.
//
//	tokens [b, n] -> embed [b, n, d] -> BiLSTM [b, n, 2u]
//	  -> attention pooling [b, r, 2u] -> flatten -> MLP -> [b, 2]
type Classifier struct {
	cfg       Config
	embedding *nn.Embedding
	embedDrop *nn.Dropout
	encoder   *nn.LSTM
	attention *nn.SelfAttention
	poolDrop  *nn.Dropout
	fc        *nn.Linear
	out       *nn.Linear
	backend   tensor.Backend
	training  bool
}

// New builds the classifier around a pretrained [VocabSize, EmbedDim]
// embedding table. Config violations and a table that does not match
// the config are errors; nothing is partially constructed on failure.
func New(cfg Config, embeddings *tensor.Tensor[float32], rng *rand.Rand, backend tensor.Backend) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shape := embeddings.Shape()
	if len(shape) != 2 || shape[0] != cfg.VocabSize || shape[1] != cfg.EmbedDim {
		return nil, fmt.Errorf("embedding table is %v, config expects [%d, %d]",
			shape, cfg.VocabSize, cfg.EmbedDim)
	}

	encoded := 2 * cfg.HiddenDim // bidirectional
	return &Classifier{
		cfg:       cfg,
		embedding: nn.NewEmbeddingWithWeight(embeddings, cfg.FreezeEmbeddings),
		embedDrop: nn.NewDropout(cfg.Dropout, rng, backend),
		encoder:   nn.NewLSTM(cfg.EmbedDim, cfg.HiddenDim, cfg.Layers, true, rng, backend),
		attention: nn.NewSelfAttention(encoded, cfg.AttnDim, cfg.AttnHeads, rng, backend),
		poolDrop:  nn.NewDropout(cfg.Dropout, rng, backend),
		fc:        nn.NewLinear(cfg.AttnHeads*encoded, cfg.HiddenDim, rng, backend),
		out:       nn.NewLinear(cfg.HiddenDim, NumClasses, rng, backend),
		backend:   backend,
		training:  true,
	}, nil
}

// Config returns the architecture the classifier was built with.
func (c *Classifier) Config() Config { return c.cfg }

// Forward maps tokens [b, n] and true lengths [b] to class scores
// [b, NumClasses]. Shape disagreement between the two inputs is a
// programmer error and panics.
func (c *Classifier) Forward(batch *tensor.Tensor[int32], lengths *tensor.Tensor[int32]) *tensor.Tensor[float32] {
	batchShape := batch.Shape()
	lenShape := lengths.Shape()
	if len(batchShape) != 2 || len(lenShape) != 1 || batchShape[0] != lenShape[0] {
		panic(fmt.Sprintf("classifier: batch %v and lengths %v disagree", batchShape, lenShape))
	}
	b, n := batchShape[0], batchShape[1]

	embedded := c.embedDrop.Forward(c.embedding.Forward(batch)) // [b, n, d]
	hidden := c.encoder.Forward(embedded)                       // [b, n, 2u]

	mask := nn.LengthMask(lengths, n, c.backend)
	pooled, _ := c.attention.Forward(hidden, mask) // [b, r, 2u]

	flat := pooled.Reshape(tensor.Shape{b, c.cfg.AttnHeads * 2 * c.cfg.HiddenDim})
	flat = c.poolDrop.Forward(flat)

	return c.out.Forward(c.fc.Forward(flat).ReLU())
}

// SetTraining toggles dropout. Evaluation runs with training off.
func (c *Classifier) SetTraining(training bool) {
	c.training = training
	c.embedDrop.SetTraining(training)
	c.poolDrop.SetTraining(training)
}

// Training reports whether dropout is active.
func (c *Classifier) Training() bool { return c.training }

// component pairs an owned module with its state dict prefix.
type component struct {
	prefix string
	module nn.Module
}

// components lists the owned modules in forward order.
func (c *Classifier) components() []component {
	return []component{
		{"embedding.", c.embedding},
		{"lstm.", c.encoder},
		{"attention.", c.attention},
		{"fc.", c.fc},
		{"out.", c.out},
	}
}

// Parameters returns the trainable parameters in forward order. A
// frozen embedding table is excluded.
func (c *Classifier) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, comp := range c.components() {
		params = append(params, comp.module.Parameters()...)
	}
	return params
}

// StateDict returns every tensor under its component prefix
// ("embedding.weight", "lstm.weight_ih_l0", "attention.ws1.weight",
// ...). The frozen embedding is included so archives stand alone.
func (c *Classifier) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, comp := range c.components() {
		for name, raw := range comp.module.StateDict() {
			stateDict[comp.prefix+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict restores every component from its prefixed entries.
func (c *Classifier) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, comp := range c.components() {
		sub := make(map[string]*tensor.RawTensor)
		for name, raw := range stateDict {
			if strings.HasPrefix(name, comp.prefix) {
				sub[strings.TrimPrefix(name, comp.prefix)] = raw
			}
		}
		if err := comp.module.LoadStateDict(sub); err != nil {
			return fmt.Errorf("%s%w", comp.prefix, err)
		}
	}
	return nil
}
