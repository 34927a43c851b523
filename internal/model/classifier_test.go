package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentio-ml/sentio/internal/autodiff"
	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/tensor"
)

func testConfig() Config {
	return Config{
		VocabSize:        9,
		EmbedDim:         4,
		HiddenDim:        3,
		AttnDim:          5,
		AttnHeads:        2,
		Layers:           1,
		MaxLen:           6,
		Dropout:          0,
		FreezeEmbeddings: true,
	}
}

func testEmbeddings(cfg Config, seed int64, backend tensor.Backend) *tensor.Tensor[float32] {
	rng := rand.New(rand.NewSource(seed))
	table := tensor.Zeros[float32](tensor.Shape{cfg.VocabSize, cfg.EmbedDim}, backend)
	values := table.Data()
	for i := cfg.EmbedDim; i < len(values); i++ { // padding row stays zero
		values[i] = 0.1 * float32(rng.NormFloat64())
	}
	return table
}

func newTestClassifier(t *testing.T, cfg Config, seed int64, backend tensor.Backend) *Classifier {
	t.Helper()
	clf, err := New(cfg, testEmbeddings(cfg, seed, backend), rand.New(rand.NewSource(seed)), backend)
	require.NoError(t, err)
	return clf
}

func testBatch(t *testing.T, backend tensor.Backend) (*tensor.Tensor[int32], *tensor.Tensor[int32]) {
	t.Helper()
	batch, err := tensor.FromSlice([]int32{
		1, 2, 3, 4, 5, 6,
		7, 8, 1, 0, 0, 0,
		2, 0, 0, 0, 0, 0,
	}, tensor.Shape{3, 6}, backend)
	require.NoError(t, err)
	lengths, err := tensor.FromSlice([]int32{6, 3, 1}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	return batch, lengths
}

func TestClassifierForwardShapes(t *testing.T) {
	backend := cpu.New()
	clf := newTestClassifier(t, testConfig(), 42, backend)
	batch, lengths := testBatch(t, backend)

	scores := clf.Forward(batch, lengths)

	assert.Equal(t, tensor.Shape{3, NumClasses}, scores.Shape())
}

func TestClassifierForwardPanicsOnShapeMismatch(t *testing.T) {
	backend := cpu.New()
	clf := newTestClassifier(t, testConfig(), 42, backend)
	batch, _ := testBatch(t, backend)

	short, err := tensor.FromSlice([]int32{6, 3}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	assert.Panics(t, func() { clf.Forward(batch, short) })
}

func TestClassifierEvalDeterministic(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()
	cfg.Dropout = 0.5
	clf := newTestClassifier(t, cfg, 42, backend)
	batch, lengths := testBatch(t, backend)

	clf.SetTraining(false)
	first := clf.Forward(batch, lengths)
	second := clf.Forward(batch, lengths)

	assert.Equal(t, first.Data(), second.Data())
}

func TestClassifierDropoutActiveInTraining(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()
	cfg.Dropout = 0.5
	clf := newTestClassifier(t, cfg, 42, backend)
	batch, lengths := testBatch(t, backend)

	require.True(t, clf.Training())
	first := clf.Forward(batch, lengths)
	second := clf.Forward(batch, lengths)

	assert.NotEqual(t, first.Data(), second.Data())
}

func TestClassifierParametersExcludeFrozenEmbedding(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()

	// 1 bidirectional layer: 2 cells x 4 tensors, plus 2 attention
	// projections and 2 weight+bias pairs for the MLP head.
	frozen := newTestClassifier(t, cfg, 42, backend)
	assert.Len(t, frozen.Parameters(), 14)

	cfg.FreezeEmbeddings = false
	trainable := newTestClassifier(t, cfg, 42, backend)
	assert.Len(t, trainable.Parameters(), 15)
}

func TestClassifierStateDictKeys(t *testing.T) {
	backend := cpu.New()
	clf := newTestClassifier(t, testConfig(), 42, backend)

	stateDict := clf.StateDict()

	for _, key := range []string{
		"embedding.weight",
		"lstm.weight_ih_l0",
		"lstm.weight_hh_l0_reverse",
		"attention.ws1.weight",
		"attention.ws2.weight",
		"fc.weight",
		"fc.bias",
		"out.weight",
		"out.bias",
	} {
		assert.Contains(t, stateDict, key)
	}
	assert.Len(t, stateDict, 15, "frozen embedding is still persisted")
}

func TestClassifierStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()
	source := newTestClassifier(t, cfg, 1, backend)
	target := newTestClassifier(t, cfg, 2, backend)
	batch, lengths := testBatch(t, backend)

	source.SetTraining(false)
	target.SetTraining(false)
	require.NotEqual(t, source.Forward(batch, lengths).Data(), target.Forward(batch, lengths).Data())

	require.NoError(t, target.LoadStateDict(source.StateDict()))

	assert.Equal(t, source.Forward(batch, lengths).Data(), target.Forward(batch, lengths).Data())
}

func TestClassifierLoadStateDictMissingKey(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()
	clf := newTestClassifier(t, cfg, 1, backend)

	stateDict := clf.StateDict()
	delete(stateDict, "fc.weight")

	err := newTestClassifier(t, cfg, 2, backend).LoadStateDict(stateDict)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fc.")
}

func TestClassifierGradientFlow(t *testing.T) {
	backend := autodiff.New(cpu.New())
	clf := newTestClassifier(t, testConfig(), 42, backend)
	batch, lengths := testBatch(t, backend)
	labels, err := tensor.FromSlice([]int32{0, 1, 0}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	scores := clf.Forward(batch, lengths)
	loss := backend.CrossEntropy(scores.Raw(), labels.Raw())
	backend.Tape().StopRecording()

	seed, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	seed.AsFloat32()[0] = 1
	grads := backend.Tape().Backward(loss, seed, backend.Inner())

	for _, p := range clf.Parameters() {
		grad, ok := grads[p.Raw()]
		require.True(t, ok, "parameter %s received no gradient", p.Name())
		assert.True(t, grad.Shape().Equal(p.Raw().Shape()), "parameter %s", p.Name())
	}
}

func TestClassifierRejectsBadConfig(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero hidden dim", mutate: func(c *Config) { c.HiddenDim = 0 }},
		{name: "negative layers", mutate: func(c *Config) { c.Layers = -1 }},
		{name: "dropout one", mutate: func(c *Config) { c.Dropout = 1 }},
		{name: "zero heads", mutate: func(c *Config) { c.AttnHeads = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, testEmbeddings(testConfig(), 42, backend), rand.New(rand.NewSource(42)), backend)
			assert.Error(t, err)
		})
	}
}

func TestClassifierRejectsMismatchedEmbeddings(t *testing.T) {
	backend := cpu.New()
	cfg := testConfig()

	small := tensor.Zeros[float32](tensor.Shape{cfg.VocabSize - 1, cfg.EmbedDim}, backend)
	_, err := New(cfg, small, rand.New(rand.NewSource(42)), backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding table")
}
