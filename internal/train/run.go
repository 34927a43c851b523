package train

import (
	"math/rand"

	"github.com/sentio-ml/sentio/internal/autodiff"
	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/data"
	"github.com/sentio-ml/sentio/internal/model"
	"github.com/sentio-ml/sentio/internal/optim"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Run executes a complete training run from a prepared dataset: load
// the vocabulary, embeddings and splits, build the classifier and the
// Adam optimizer, then train. The run summary is returned when every
// epoch has finished.
func Run(cfg Config) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := data.LoadDataset(cfg.DatasetDir)
	if err != nil {
		return nil, wrapDataErr(err)
	}
	if got := ds.EmbedDim(); got != cfg.EmbedDim {
		return nil, configErrorf("embed_dim",
			"dataset embeddings are %d-dimensional, config says %d", got, cfg.EmbedDim)
	}
	trainSplit, err := ds.LoadSplit(data.SplitTraining)
	if err != nil {
		return nil, wrapDataErr(err)
	}
	valSplit, err := ds.LoadSplit(data.SplitValidation)
	if err != nil {
		return nil, wrapDataErr(err)
	}

	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Seed))

	mcfg := model.Config{
		VocabSize:        ds.Vocab().Size(),
		EmbedDim:         cfg.EmbedDim,
		HiddenDim:        cfg.HiddenDim,
		AttnDim:          cfg.AttnDim,
		AttnHeads:        cfg.AttnHeads,
		Layers:           cfg.Layers,
		MaxLen:           cfg.MaxLen,
		Dropout:          cfg.Dropout,
		FreezeEmbeddings: cfg.FreezeEmbeddings,
	}
	// The dataset keeps its own embedding tensor; the model gets a copy
	// so fine-tuning with freeze_embeddings off cannot corrupt it.
	embeddings := tensor.New[float32](ds.Embeddings().Clone(), backend)
	clf, err := model.New(mcfg, embeddings, rng, backend)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	opt := optim.NewAdam(clf.Parameters(), optim.AdamConfig{LR: cfg.LR})

	trainer, err := New(cfg, trainSplit, valSplit, clf, opt, backend)
	if err != nil {
		return nil, err
	}
	trainer.SetMetadata(modelMeta(mcfg))
	return trainer.Train()
}
