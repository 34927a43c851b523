package data

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// makeTestSplit builds rows whose first token identifies the row:
// row i starts with token i+1, has length (i%3)+1 and label i%2.
func makeTestSplit(n int) *Split {
	split := &Split{
		XIndexes: make([][]int, n),
		YLabels:  make([]int, n),
	}
	for i := 0; i < n; i++ {
		length := i%3 + 1
		row := make([]int, length)
		for j := range row {
			row[j] = i + 1
		}
		split.XIndexes[i] = row
		split.YLabels[i] = i % 2
	}
	return split
}

func TestNewBatchDatasetPadsInPlace(t *testing.T) {
	split := makeTestSplit(4)

	_, err := NewBatchDataset(split, 2, 5, 0, cpu.New())
	require.NoError(t, err)

	for i, row := range split.XIndexes {
		assert.Len(t, row, 5, "row %d", i)
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0}, split.XIndexes[0])
	assert.Equal(t, []int{2, 2, 0, 0, 0}, split.XIndexes[1])
}

func TestNextBatchShapes(t *testing.T) {
	ds, err := NewBatchDataset(makeTestSplit(6), 2, 4, 0, cpu.New())
	require.NoError(t, err)

	x, lengths, y := ds.NextBatch()

	assert.Equal(t, tensor.Shape{2, 4}, x.Shape())
	assert.Equal(t, tensor.Shape{2}, lengths.Shape())
	assert.Equal(t, tensor.Shape{2}, y.Shape())
	assert.Equal(t, tensor.Int32, x.Raw().DType())
}

func TestNextBatchFirstPassConstructionOrder(t *testing.T) {
	ds, err := NewBatchDataset(makeTestSplit(6), 2, 4, 99, cpu.New())
	require.NoError(t, err)

	// Three draws cover the split exactly once, in order, whatever
	// the seed. Shuffling only happens when the cursor wraps.
	var seen []int32
	for i := 0; i < 3; i++ {
		x, _, _ := ds.NextBatch()
		for j := 0; j < 2; j++ {
			seen = append(seen, x.Data()[j*4])
		}
	}
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, seen)
}

func TestNextBatchWrapReshuffles(t *testing.T) {
	const seed = 11
	ds, err := NewBatchDataset(makeTestSplit(5), 2, 4, seed, cpu.New())
	require.NoError(t, err)

	// Batch size 2 over 5 rows: draws 1 and 2 serve rows 0..3, the
	// remainder row is dropped and draw 3 starts a reshuffled pass.
	expected := []int{0, 1, 2, 3, 4}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(expected), func(i, j int) {
		expected[i], expected[j] = expected[j], expected[i]
	})

	x1, _, _ := ds.NextBatch()
	x2, _, _ := ds.NextBatch()
	assert.Equal(t, []int32{1, 2}, []int32{x1.Data()[0], x1.Data()[4]})
	assert.Equal(t, []int32{3, 4}, []int32{x2.Data()[0], x2.Data()[4]})

	x3, _, _ := ds.NextBatch()
	assert.Equal(t, int32(expected[0]+1), x3.Data()[0])
	assert.Equal(t, int32(expected[1]+1), x3.Data()[4])
}

func TestNextBatchKeepsRowsAssociated(t *testing.T) {
	ds, err := NewBatchDataset(makeTestSplit(10), 3, 3, 42, cpu.New())
	require.NoError(t, err)

	// Enough draws to wrap twice; every served row must still carry
	// its own length and label.
	for draw := 0; draw < 8; draw++ {
		x, lengths, y := ds.NextBatch()
		for j := 0; j < 3; j++ {
			row := int(x.Data()[j*3]) - 1
			require.GreaterOrEqual(t, row, 0)
			assert.Equal(t, int32(row%3+1), lengths.Data()[j], "draw %d slot %d", draw, j)
			assert.Equal(t, int32(row%2), y.Data()[j], "draw %d slot %d", draw, j)
		}
	}
}

func TestNextBatchDeterministicForSeed(t *testing.T) {
	a, err := NewBatchDataset(makeTestSplit(7), 2, 4, 5, cpu.New())
	require.NoError(t, err)
	b, err := NewBatchDataset(makeTestSplit(7), 2, 4, 5, cpu.New())
	require.NoError(t, err)

	for draw := 0; draw < 9; draw++ {
		xa, la, ya := a.NextBatch()
		xb, lb, yb := b.NextBatch()
		assert.Equal(t, xa.Data(), xb.Data(), "draw %d", draw)
		assert.Equal(t, la.Data(), lb.Data(), "draw %d", draw)
		assert.Equal(t, ya.Data(), yb.Data(), "draw %d", draw)
	}
}

func TestNewBatchDatasetRejectsMismatchedLengths(t *testing.T) {
	split := &Split{
		XIndexes: [][]int{{1}, {2}},
		YLabels:  []int{0},
	}

	_, err := NewBatchDataset(split, 1, 4, 0, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewBatchDatasetRejectsBadLabel(t *testing.T) {
	split := &Split{
		XIndexes: [][]int{{1}},
		YLabels:  []int{3},
	}

	_, err := NewBatchDataset(split, 1, 4, 0, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewBatchDatasetRejectsZeroBatch(t *testing.T) {
	_, err := NewBatchDataset(makeTestSplit(4), 0, 4, 0, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewBatchDatasetRejectsBatchLargerThanSplit(t *testing.T) {
	_, err := NewBatchDataset(makeTestSplit(4), 5, 4, 0, cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEvalDatasetServesWholeSplitInOrder(t *testing.T) {
	ds, err := NewEvalDataset(makeTestSplit(5), 4, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, 5, ds.BatchSize())

	x, lengths, y := ds.NextBatch()

	assert.Equal(t, tensor.Shape{5, 4}, x.Shape())
	for i := 0; i < 5; i++ {
		assert.Equal(t, int32(i+1), x.Data()[i*4])
		assert.Equal(t, int32(i%3+1), lengths.Data()[i])
		assert.Equal(t, int32(i%2), y.Data()[i])
	}
}
