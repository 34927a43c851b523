package train

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/sentio-ml/sentio/internal/autodiff"
	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/data"
	"github.com/sentio-ml/sentio/internal/model"
	"github.com/sentio-ml/sentio/internal/serialization"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Checkpoint metadata keys. The architecture keys let a later process
// rebuild the classifier from the archive without the training config.
const (
	metaRunID     = "run_id"
	metaBestVal   = "best_val_accuracy"
	metaVocabSize = "vocab_size"
	metaEmbedDim  = "embed_dim"
	metaHiddenDim = "hidden_dim"
	metaAttnDim   = "attn_dim"
	metaAttnHeads = "attn_heads"
	metaLayers    = "layers"
	metaMaxLen    = "max_len"
)

// modelMeta records a model configuration as checkpoint metadata.
func modelMeta(cfg model.Config) map[string]string {
	return map[string]string{
		metaVocabSize: strconv.Itoa(cfg.VocabSize),
		metaEmbedDim:  strconv.Itoa(cfg.EmbedDim),
		metaHiddenDim: strconv.Itoa(cfg.HiddenDim),
		metaAttnDim:   strconv.Itoa(cfg.AttnDim),
		metaAttnHeads: strconv.Itoa(cfg.AttnHeads),
		metaLayers:    strconv.Itoa(cfg.Layers),
		metaMaxLen:    strconv.Itoa(cfg.MaxLen),
	}
}

// modelConfigFromMeta reverses modelMeta. Dropout is zeroed and the
// embedding table frozen: a rebuilt model is for evaluation, and every
// weight is overwritten by the archive anyway.
func modelConfigFromMeta(header serialization.Header) (model.Config, error) {
	meta := make(map[string]string, len(header.Metadata))
	for key, value := range header.Metadata {
		meta[key] = value
	}
	if header.Checkpoint != nil {
		for key, value := range header.Checkpoint.TrainingMeta {
			meta[key] = value
		}
	}

	cfg := model.Config{Dropout: 0, FreezeEmbeddings: true}
	fields := []struct {
		key string
		dst *int
	}{
		{metaVocabSize, &cfg.VocabSize},
		{metaEmbedDim, &cfg.EmbedDim},
		{metaHiddenDim, &cfg.HiddenDim},
		{metaAttnDim, &cfg.AttnDim},
		{metaAttnHeads, &cfg.AttnHeads},
		{metaLayers, &cfg.Layers},
		{metaMaxLen, &cfg.MaxLen},
	}
	for _, f := range fields {
		raw, ok := meta[f.key]
		if !ok {
			return model.Config{}, fmt.Errorf("checkpoint metadata missing %q", f.key)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.Config{}, fmt.Errorf("checkpoint metadata %q: %w", f.key, err)
		}
		*f.dst = v
	}
	return cfg, nil
}

// LoadClassifier rebuilds a classifier from a checkpoint or model
// archive written by a training run. The architecture comes from the
// archive metadata, the weights from its tensors.
func LoadClassifier(path string, backend *autodiff.Backend) (*model.Classifier, serialization.Header, error) {
	tensors, header, err := serialization.ReadFile(path)
	if err != nil {
		return nil, serialization.Header{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	cfg, err := modelConfigFromMeta(header)
	if err != nil {
		return nil, serialization.Header{}, err
	}

	table := tensor.Zeros[float32](tensor.Shape{cfg.VocabSize, cfg.EmbedDim}, backend)
	clf, err := model.New(cfg, table, rand.New(rand.NewSource(0)), backend)
	if err != nil {
		return nil, serialization.Header{}, err
	}
	if err := clf.LoadStateDict(tensors); err != nil {
		return nil, serialization.Header{}, fmt.Errorf("failed to load model state: %w", err)
	}
	return clf, header, nil
}

// EvalCheckpoint loads a checkpoint and evaluates it on one split of a
// prepared dataset.
func EvalCheckpoint(checkpointPath, datasetDir, splitName string) (Result, error) {
	backend := autodiff.New(cpu.New())

	clf, _, err := LoadClassifier(checkpointPath, backend)
	if err != nil {
		return Result{}, err
	}

	ds, err := data.LoadDataset(datasetDir)
	if err != nil {
		return Result{}, wrapDataErr(err)
	}
	if got, want := ds.Vocab().Size(), clf.Config().VocabSize; got != want {
		return Result{}, configErrorf("dataset_dir",
			"dataset vocabulary has %d tokens, checkpoint expects %d", got, want)
	}
	split, err := ds.LoadSplit(splitName)
	if err != nil {
		return Result{}, wrapDataErr(err)
	}

	return Evaluate(clf, split, clf.Config().MaxLen, backend)
}
