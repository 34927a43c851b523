package nn

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Accuracy returns the fraction of rows where argmax(scores) equals
// the label. scores is [batch, classes], labels is [batch]. An empty
// batch scores 0.
func Accuracy(scores *tensor.Tensor[float32], labels *tensor.Tensor[int32]) float64 {
	predictions := scores.Argmax(1).Data()
	want := labels.Data()
	if len(predictions) != len(want) {
		panic(fmt.Sprintf("accuracy: %d predictions for %d labels", len(predictions), len(want)))
	}
	if len(predictions) == 0 {
		return 0
	}

	correct := 0
	for i, p := range predictions {
		if p == want[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions))
}
