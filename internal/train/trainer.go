// Package train drives the classifier's training and evaluation loop.
//
// The loop is synchronous and single-threaded: construct the datasets,
// then run epochs of batched gradient steps, evaluating the validation
// and training splits after each epoch and writing periodic
// checkpoints. The model is only touched through the Model interface,
// so the harness does not depend on the network architecture.
package train

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/sentio-ml/sentio/internal/autodiff"
	"github.com/sentio-ml/sentio/internal/data"
	"github.com/sentio-ml/sentio/internal/nn"
	"github.com/sentio-ml/sentio/internal/optim"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Model is the boundary between the harness and the network: the
// trainer scores padded batches, hands parameters to the optimizer and
// persists state dicts without knowing what computes the scores.
type Model interface {
	// Forward maps a padded [b, maxLen] batch and its true lengths [b]
	// to [b, numClasses] scores.
	Forward(batch *tensor.Tensor[int32], lengths *tensor.Tensor[int32]) *tensor.Tensor[float32]

	Parameters() []*nn.Parameter
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// SetTraining toggles training-only behavior such as dropout. The
	// trainer turns it off around evaluation passes.
	SetTraining(training bool)
}

// checkpointEvery is the epoch interval between checkpoints. Epoch 0
// always gets one, so even single-epoch runs leave an artifact.
const checkpointEvery = 20

// Summary reports a finished training run.
type Summary struct {
	RunID           string
	Epochs          int
	Steps           int
	BestValAccuracy float64
	FinalVal        Result
	FinalTrain      Result
}

// Trainer owns one training run.
type Trainer struct {
	cfg        Config
	model      Model
	optimizer  optim.Optimizer
	backend    *autodiff.Backend
	batches    *data.BatchDataset
	trainSplit *data.Split
	valSplit   *data.Split
	runID      string
	bestVal    float64
	extraMeta  map[string]string
}

// New builds a Trainer over pre-loaded splits. The splits are copied
// before padding, so the caller's data is left untouched; batching over
// the training split uses cfg.Seed.
func New(cfg Config, trainSplit, valSplit *data.Split, m Model, opt optim.Optimizer, backend *autodiff.Backend) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		return nil, configErrorf("output_dir", "required for training")
	}
	if err := valSplit.Validate(0); err != nil {
		return nil, wrapDataErr(err)
	}
	batches, err := data.NewBatchDataset(trainSplit.Clone(), cfg.BatchSize, cfg.MaxLen, cfg.Seed, backend)
	if err != nil {
		return nil, wrapDataErr(err)
	}

	return &Trainer{
		cfg:        cfg,
		model:      m,
		optimizer:  opt,
		backend:    backend,
		batches:    batches,
		trainSplit: trainSplit,
		valSplit:   valSplit,
		runID:      uuid.NewString(),
		bestVal:    -1,
	}, nil
}

// RunID returns the run's unique identifier, recorded in every
// checkpoint this trainer writes.
func (t *Trainer) RunID() string { return t.runID }

// SetMetadata attaches extra key/value pairs to every checkpoint. Run
// uses it to record the model architecture so evaluation can rebuild
// the classifier from the artifact alone.
func (t *Trainer) SetMetadata(meta map[string]string) { t.extraMeta = meta }

// Train runs the full epoch loop and returns the run summary. Any
// error aborts the run: configuration and IO errors as themselves,
// numeric failures wrapping ErrNonFiniteLoss.
func (t *Trainer) Train() (*Summary, error) {
	stepsPerEpoch := t.batches.Size() / t.cfg.BatchSize

	fmt.Printf("run %s: %d training examples, %d steps/epoch, %d epochs\n",
		t.runID, t.batches.Size(), stepsPerEpoch, t.cfg.Epochs)

	summary := &Summary{RunID: t.runID}
	step := 0
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		t.model.SetTraining(true)

		var epochLoss float64
		for s := 0; s < stepsPerEpoch; s++ {
			x, lengths, y := t.batches.NextBatch()
			loss, err := t.trainStep(x, lengths, y)
			if err != nil {
				return nil, fmt.Errorf("epoch %d step %d: %w", epoch, s, err)
			}
			epochLoss += loss
			step++
		}
		meanLoss := epochLoss / float64(stepsPerEpoch)

		val, err := Evaluate(t.model, t.valSplit, t.cfg.MaxLen, t.backend)
		if err != nil {
			return nil, err
		}
		trainEval, err := Evaluate(t.model, t.trainSplit, t.cfg.MaxLen, t.backend)
		if err != nil {
			return nil, err
		}
		if val.Accuracy > t.bestVal {
			t.bestVal = val.Accuracy
		}

		fmt.Printf("epoch %3d | loss %.4f | val acc %.4f loss %.4f | train acc %.4f loss %.4f\n",
			epoch, meanLoss, val.Accuracy, val.Loss, trainEval.Accuracy, trainEval.Loss)

		if epoch%checkpointEvery == 0 {
			if err := t.saveCheckpoint(epoch, step, meanLoss); err != nil {
				return nil, err
			}
		}

		summary.FinalVal, summary.FinalTrain = val, trainEval
	}

	summary.Epochs = t.cfg.Epochs
	summary.Steps = step
	summary.BestValAccuracy = t.bestVal
	return summary, nil
}

// trainStep runs one optimization step: zero gradients, forward,
// cross-entropy loss, backward, optional clipping, optimizer update,
// clear the tape. A non-finite loss fails the step.
func (t *Trainer) trainStep(x, lengths, y *tensor.Tensor[int32]) (float64, error) {
	t.optimizer.ZeroGrad()

	tape := t.backend.Tape()
	tape.StartRecording()
	scores := t.model.Forward(x, lengths)
	lossT := t.backend.CrossEntropy(scores.Raw(), y.Raw())
	tape.StopRecording()

	loss := float64(lossT.AsFloat32()[0])
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		tape.Clear()
		return loss, fmt.Errorf("loss is %v: %w", loss, ErrNonFiniteLoss)
	}

	grads := tape.Backward(lossT, gradSeed(), t.backend.Inner())
	if t.cfg.ClipNorm > 0 {
		optim.ClipGradNorm(t.model.Parameters(), grads, t.cfg.ClipNorm)
	}
	t.optimizer.Step(grads)
	tape.Clear()
	return loss, nil
}

// saveCheckpoint writes <output-dir>/checkpoint_epoch_<N>.sentio with
// model and optimizer state plus run metadata.
func (t *Trainer) saveCheckpoint(epoch, step int, loss float64) error {
	if err := os.MkdirAll(t.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	meta := map[string]string{
		metaRunID:   t.runID,
		metaBestVal: strconv.FormatFloat(t.bestVal, 'f', 6, 64),
	}
	for key, value := range t.extraMeta {
		meta[key] = value
	}

	checkpoint := &nn.Checkpoint{
		Model:     t.model,
		Optimizer: t.optimizer,
		Epoch:     epoch,
		Step:      step,
		Loss:      loss,
		Metadata:  meta,
	}
	path := filepath.Join(t.cfg.OutputDir, fmt.Sprintf("checkpoint_epoch_%d.sentio", epoch))
	if err := checkpoint.Save(path); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", path)
	return nil
}

// gradSeed returns the scalar 1 that seeds the backward pass.
func gradSeed() *tensor.RawTensor {
	seed, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("train: %v", err))
	}
	seed.AsFloat32()[0] = 1
	return seed
}
