package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEncoder splits on whitespace and assigns ids in first-seen
// order, standing in for the BPE tokenizer so tests run offline.
type stubEncoder struct {
	ids    map[string]int
	tokens []string
}

func newStubEncoder() *stubEncoder {
	return &stubEncoder{ids: make(map[string]int)}
}

func (e *stubEncoder) Encode(text string) []int {
	var out []int
	for _, word := range strings.Fields(text) {
		id, ok := e.ids[word]
		if !ok {
			id = len(e.tokens)
			e.ids[word] = id
			e.tokens = append(e.tokens, word)
		}
		out = append(out, id)
	}
	return out
}

func (e *stubEncoder) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, id := range tokens {
		parts[i] = e.tokens[id]
	}
	return strings.Join(parts, " ")
}

const testCorpus = `1	good movie
0	bad film
1	great movie
0	awful film
1	nice plot
0	poor acting
1	fine cast
0	dull story
1	good cast
0	bad plot
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPrepareBuildsLoadableDataset(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "dataset")
	stats, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, testCorpus),
		OutputDir: outDir,
		EmbedDim:  8,
		TrainFrac: 0.6,
		ValFrac:   0.2,
		Seed:      42,
	}, newStubEncoder())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.Examples)
	assert.Equal(t, 15, stats.VocabSize, "14 words plus the padding token")
	assert.Equal(t, 6, stats.TrainSize)
	assert.Equal(t, 2, stats.ValSize)
	assert.Equal(t, 2, stats.TestSize)
	assert.Equal(t, 0, stats.Pretrained)

	ds, err := LoadDataset(outDir)
	require.NoError(t, err)
	assert.Equal(t, 15, ds.Vocab().Size())
	assert.Equal(t, 8, ds.EmbedDim())

	// Every split must load cleanly and the rows must add back up.
	total := 0
	positives := 0
	for _, name := range []string{SplitTraining, SplitValidation, SplitTest} {
		split, err := ds.LoadSplit(name)
		require.NoError(t, err, name)
		total += split.Size()
		for _, y := range split.YLabels {
			positives += y
		}
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 5, positives)
}

func TestPrepareVocabularyIndependentOfSeed(t *testing.T) {
	input := writeCorpus(t, testCorpus)
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")

	cfg := PrepareConfig{
		InputPath: input,
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
	}
	cfg.OutputDir, cfg.Seed = dirA, 1
	_, err := Prepare(cfg, newStubEncoder())
	require.NoError(t, err)
	cfg.OutputDir, cfg.Seed = dirB, 2
	_, err = Prepare(cfg, newStubEncoder())
	require.NoError(t, err)

	vocabA, err := os.ReadFile(filepath.Join(dirA, VocabFile))
	require.NoError(t, err)
	vocabB, err := os.ReadFile(filepath.Join(dirB, VocabFile))
	require.NoError(t, err)
	assert.Equal(t, vocabA, vocabB, "vocabulary order follows the corpus, not the seed")
}

func TestPrepareDeterministic(t *testing.T) {
	input := writeCorpus(t, testCorpus)
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")

	cfg := PrepareConfig{
		InputPath: input,
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
		Seed:      7,
	}
	cfg.OutputDir = dirA
	_, err := Prepare(cfg, newStubEncoder())
	require.NoError(t, err)
	cfg.OutputDir = dirB
	_, err = Prepare(cfg, newStubEncoder())
	require.NoError(t, err)

	for _, name := range []string{SplitTraining, SplitValidation, SplitTest} {
		a, err := os.ReadFile(filepath.Join(dirA, name+".json"))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name+".json"))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestPrepareUsesPretrainedVectors(t *testing.T) {
	vectorsPath := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(vectorsPath, []byte(
		"2 4\ngood 0.5 -0.5 0.75 1.0\nmovie 1.0 2.0 3.0 4.0\n"), 0o644))

	outDir := filepath.Join(t.TempDir(), "dataset")
	stats, err := Prepare(PrepareConfig{
		InputPath:   writeCorpus(t, testCorpus),
		OutputDir:   outDir,
		EmbedDim:    4,
		VectorsPath: vectorsPath,
		TrainFrac:   0.6,
		ValFrac:     0.2,
		Seed:        42,
	}, newStubEncoder())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pretrained)

	ds, err := LoadDataset(outDir)
	require.NoError(t, err)
	table := ds.Embeddings().AsFloat32()

	id, ok := ds.Vocab().Lookup("good")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, -0.5, 0.75, 1.0}, table[id*4:(id+1)*4])

	// Words without a vector get small uniform noise.
	id, ok = ds.Vocab().Lookup("plot")
	require.True(t, ok)
	for _, v := range table[id*4 : (id+1)*4] {
		assert.LessOrEqual(t, v, float32(0.25))
		assert.GreaterOrEqual(t, v, float32(-0.25))
	}
}

func TestPrepareZeroesPaddingRow(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "dataset")
	_, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, testCorpus),
		OutputDir: outDir,
		EmbedDim:  6,
		TrainFrac: 0.6,
		ValFrac:   0.2,
		Seed:      3,
	}, newStubEncoder())
	require.NoError(t, err)

	ds, err := LoadDataset(outDir)
	require.NoError(t, err)
	for i, v := range ds.Embeddings().AsFloat32()[:6] {
		assert.Zero(t, v, "padding row element %d", i)
	}
}

func TestPrepareRejectsBadLabel(t *testing.T) {
	_, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, "2\tgood movie\n"),
		OutputDir: t.TempDir(),
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
	}, newStubEncoder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "line 1")
}

func TestPrepareRejectsMissingTab(t *testing.T) {
	_, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, "1 good movie\n"),
		OutputDir: t.TempDir(),
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
	}, newStubEncoder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestPrepareRejectsEmptyText(t *testing.T) {
	_, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, "1\t\n"),
		OutputDir: t.TempDir(),
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
	}, newStubEncoder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestPrepareRejectsTinySplit(t *testing.T) {
	_, err := Prepare(PrepareConfig{
		InputPath: writeCorpus(t, "1\tgood\n0\tbad\n"),
		OutputDir: t.TempDir(),
		EmbedDim:  4,
		TrainFrac: 0.6,
		ValFrac:   0.2,
	}, newStubEncoder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestPrepareRejectsVectorDimensionMismatch(t *testing.T) {
	vectorsPath := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(vectorsPath, []byte("1 5\ngood 1 2 3 4 5\n"), 0o644))

	_, err := Prepare(PrepareConfig{
		InputPath:   writeCorpus(t, testCorpus),
		OutputDir:   t.TempDir(),
		EmbedDim:    4,
		VectorsPath: vectorsPath,
		TrainFrac:   0.6,
		ValFrac:     0.2,
	}, newStubEncoder())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}
