package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/sentio-ml/sentio/internal/serialization"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// OptimizerState is the slice of an optimizer that checkpoints need.
// It lives here rather than in the optim package so checkpoints can
// serialize optimizer state without an import cycle.
type OptimizerState interface {
	// Name identifies the optimizer kind, e.g. "sgd" or "adam".
	Name() string

	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores optimizer state.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Checkpoint is a complete training snapshot: model parameters,
// optimizer state and where the run was when it stopped. Saving one
// lets a later process resume from the same epoch.
//
//	cp := &nn.Checkpoint{Model: model, Optimizer: opt, Epoch: 10, Step: 5000, Loss: 0.123}
//	err := cp.Save("checkpoint_epoch_10.sentio")
type Checkpoint struct {
	Model     Module
	Optimizer OptimizerState
	Epoch     int
	Step      int
	Loss      float64
	Metadata  map[string]string
	CreatedAt time.Time
}

// optimizerPrefix separates optimizer tensors from model tensors in
// the combined archive.
const optimizerPrefix = "optimizer."

// Save writes the checkpoint to a .sentio file. Model tensors keep
// their state dict names; optimizer tensors get the "optimizer."
// prefix so both can share one archive.
func (c *Checkpoint) Save(path string) error {
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range c.Model.StateDict() {
		combined[name] = raw
	}
	for name, raw := range c.Optimizer.StateDict() {
		combined[optimizerPrefix+name] = raw
	}

	header := serialization.Header{
		ModelType: "checkpoint",
		Metadata:  c.Metadata,
		Checkpoint: &serialization.CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         c.Epoch,
			Step:          c.Step,
			Loss:          c.Loss,
			OptimizerType: c.Optimizer.Name(),
			LearningRate:  float64(c.Optimizer.GetLR()),
			TrainingMeta:  c.Metadata,
		},
	}

	if err := serialization.WriteFile(path, combined, header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a checkpoint saved with Save. The model and
// optimizer must be pre-constructed with the same architecture and
// configuration; their state is overwritten in place.
func LoadCheckpoint(path string, model Module, optimizer OptimizerState) (*Checkpoint, error) {
	tensors, header, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	meta := header.Checkpoint
	if meta == nil || !meta.IsCheckpoint {
		return nil, fmt.Errorf("%s is not a checkpoint", path)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range tensors {
		if strings.HasPrefix(name, optimizerPrefix) {
			optimizerState[strings.TrimPrefix(name, optimizerPrefix)] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if err := optimizer.LoadStateDict(optimizerState); err != nil {
		return nil, fmt.Errorf("failed to load optimizer state: %w", err)
	}

	created, _ := time.Parse(time.RFC3339, header.CreatedAt)
	return &Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     meta.Epoch,
		Step:      meta.Step,
		Loss:      meta.Loss,
		Metadata:  meta.TrainingMeta,
		CreatedAt: created,
	}, nil
}

// SaveModel writes just the model weights, without optimizer state.
// Use this for the final artifact of a training run.
func SaveModel(path string, model Module, modelType string, metadata map[string]string) error {
	header := serialization.Header{
		ModelType: modelType,
		Metadata:  metadata,
	}
	if err := serialization.WriteFile(path, model.StateDict(), header); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// LoadModel restores weights saved with SaveModel into a
// pre-constructed model and returns the archive header.
func LoadModel(path string, model Module) (serialization.Header, error) {
	tensors, header, err := serialization.ReadFile(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to read model: %w", err)
	}
	if err := model.LoadStateDict(tensors); err != nil {
		return serialization.Header{}, fmt.Errorf("failed to load model state: %w", err)
	}
	return header, nil
}
