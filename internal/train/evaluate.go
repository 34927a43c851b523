package train

import (
	"github.com/sentio-ml/sentio/internal/autodiff"
	"github.com/sentio-ml/sentio/internal/data"
	"github.com/sentio-ml/sentio/internal/nn"
)

// Result holds one split's evaluation metrics.
type Result struct {
	Accuracy float64 // fraction of argmax(scores) == label, in [0, 1]
	Loss     float64 // mean cross entropy over the split
}

// Evaluate scores the whole split as a single padded batch with
// training mode off and nothing recorded on the tape. The split is
// copied first, so the caller's data keeps its true lengths.
func Evaluate(m Model, split *data.Split, maxLen int, backend *autodiff.Backend) (Result, error) {
	ds, err := data.NewEvalDataset(split.Clone(), maxLen, backend)
	if err != nil {
		return Result{}, wrapDataErr(err)
	}

	backend.Tape().StopRecording()
	m.SetTraining(false)

	x, lengths, y := ds.NextBatch()
	scores := m.Forward(x, lengths)
	loss := backend.CrossEntropy(scores.Raw(), y.Raw())

	return Result{
		Accuracy: nn.Accuracy(scores, y),
		Loss:     float64(loss.AsFloat32()[0]),
	}, nil
}
