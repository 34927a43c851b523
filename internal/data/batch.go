package data

import (
	"fmt"
	"math/rand"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// BatchDataset walks a split in fixed-size batches. Rows are drawn
// through a permutation that starts as the construction order and is
// reshuffled each time the cursor wraps, so every pass after the first
// sees a different order. When fewer than batchSize rows remain in the
// permutation the remainder is dropped and the wrap happens early.
//
// All sequences are padded at construction. The padded rows replace
// the split's sequences in place; apart from that the split is never
// modified.
type BatchDataset struct {
	x       [][]int // padded rows, shared with the split
	lengths []int
	y       []int

	batchSize int
	maxLen    int
	perm      []int
	cursor    int
	rng       *rand.Rand
	backend   tensor.Backend
}

// NewBatchDataset pads split to maxLen and prepares batch iteration.
// The seed drives reshuffling only; the first pass runs in
// construction order.
func NewBatchDataset(split *Split, batchSize, maxLen int, seed int64, backend tensor.Backend) (*BatchDataset, error) {
	if err := split.Validate(0); err != nil {
		return nil, err
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size %d, expected >= 1", ErrConfig, batchSize)
	}
	if maxLen < 1 {
		return nil, fmt.Errorf("%w: max length %d, expected >= 1", ErrConfig, maxLen)
	}
	if batchSize > split.Size() {
		return nil, fmt.Errorf("%w: batch size %d exceeds the split's %d examples",
			ErrConfig, batchSize, split.Size())
	}

	padded, lengths := Pad(split.XIndexes, maxLen)
	for i := range padded {
		split.XIndexes[i] = padded[i]
	}

	perm := make([]int, split.Size())
	for i := range perm {
		perm[i] = i
	}

	return &BatchDataset{
		x:         split.XIndexes,
		lengths:   lengths,
		y:         split.YLabels,
		batchSize: batchSize,
		maxLen:    maxLen,
		perm:      perm,
		rng:       rand.New(rand.NewSource(seed)),
		backend:   backend,
	}, nil
}

// NewEvalDataset covers one-shot evaluation: the whole split as a
// single batch in construction order.
func NewEvalDataset(split *Split, maxLen int, backend tensor.Backend) (*BatchDataset, error) {
	return NewBatchDataset(split, split.Size(), maxLen, 0, backend)
}

// Size returns the number of examples in the split.
func (b *BatchDataset) Size() int {
	return len(b.x)
}

// BatchSize returns the configured batch size.
func (b *BatchDataset) BatchSize() int {
	return b.batchSize
}

// NextBatch returns the next batchSize rows as backend tensors:
// tokens int32[b][maxLen], lengths int32[b] and labels int32[b].
// Row i of each tensor comes from the same example, whatever the
// current permutation.
func (b *BatchDataset) NextBatch() (*tensor.Tensor[int32], *tensor.Tensor[int32], *tensor.Tensor[int32]) {
	if b.cursor+b.batchSize > len(b.perm) {
		b.rng.Shuffle(len(b.perm), func(i, j int) {
			b.perm[i], b.perm[j] = b.perm[j], b.perm[i]
		})
		b.cursor = 0
	}
	rows := b.perm[b.cursor : b.cursor+b.batchSize]
	b.cursor += b.batchSize

	xFlat := make([]int32, b.batchSize*b.maxLen)
	lengths := make([]int32, b.batchSize)
	labels := make([]int32, b.batchSize)
	for i, row := range rows {
		for j, tok := range b.x[row] {
			xFlat[i*b.maxLen+j] = int32(tok)
		}
		lengths[i] = int32(b.lengths[row])
		labels[i] = int32(b.y[row])
	}

	return b.toTensor(xFlat, tensor.Shape{b.batchSize, b.maxLen}),
		b.toTensor(lengths, tensor.Shape{b.batchSize}),
		b.toTensor(labels, tensor.Shape{b.batchSize})
}

func (b *BatchDataset) toTensor(data []int32, shape tensor.Shape) *tensor.Tensor[int32] {
	t, err := tensor.FromSlice(data, shape, b.backend)
	if err != nil {
		panic(fmt.Sprintf("data: batch tensor: %v", err))
	}
	return t
}
