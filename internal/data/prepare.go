package data

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sentio-ml/sentio/internal/serialization"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// TokenEncoder turns raw text into token ids and back. Satisfied by
// tokenizer.Encoder.
type TokenEncoder interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// PrepareConfig drives dataset preparation.
type PrepareConfig struct {
	InputPath   string  // TSV file, one "label<TAB>text" per line
	OutputDir   string  // dataset directory to create
	EmbedDim    int     // embedding width
	VectorsPath string  // optional word2vec-style text file
	TrainFrac   float64 // fraction of examples for training
	ValFrac     float64 // fraction for validation; test takes the rest
	Seed        int64   // shuffles the split assignment
}

// PrepareStats summarizes a prepared dataset.
type PrepareStats struct {
	Examples   int
	VocabSize  int
	TrainSize  int
	ValSize    int
	TestSize   int
	Pretrained int // vocabulary tokens found in the vectors file
}

type example struct {
	tokens []int
	label  int
}

// Prepare builds a dataset directory from labelled raw text: tokenize,
// remap token ids to a compact vocabulary with index 0 reserved for
// padding, split deterministically, and write vocab.txt, the three
// split files and embeddings.sentio.
func Prepare(cfg PrepareConfig, enc TokenEncoder) (*PrepareStats, error) {
	if cfg.EmbedDim < 1 {
		return nil, fmt.Errorf("%w: embedding dim %d, expected >= 1", ErrConfig, cfg.EmbedDim)
	}
	if cfg.TrainFrac <= 0 || cfg.ValFrac <= 0 || cfg.TrainFrac+cfg.ValFrac >= 1 {
		return nil, fmt.Errorf("%w: split fractions train=%.2f val=%.2f, expected positive with train+val < 1",
			ErrConfig, cfg.TrainFrac, cfg.ValFrac)
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	vocab := NewVocabulary()
	examples, err := readCorpus(f, enc, vocab)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})

	nTrain := int(cfg.TrainFrac * float64(len(examples)))
	nVal := int(cfg.ValFrac * float64(len(examples)))
	nTest := len(examples) - nTrain - nVal
	if nTrain < 1 || nVal < 1 || nTest < 1 {
		return nil, fmt.Errorf("%w: %d examples split into train=%d val=%d test=%d, every split needs at least one",
			ErrConfig, len(examples), nTrain, nVal, nTest)
	}

	var vectors map[string][]float32
	if cfg.VectorsPath != "" {
		vectors, err = loadWordVectors(cfg.VectorsPath, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
	}
	embeddings, pretrained := buildEmbeddings(vocab, vectors, cfg.EmbedDim, rng)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := vocab.Save(filepath.Join(cfg.OutputDir, VocabFile)); err != nil {
		return nil, err
	}
	splits := map[string][]example{
		SplitTraining:   examples[:nTrain],
		SplitValidation: examples[nTrain : nTrain+nVal],
		SplitTest:       examples[nTrain+nVal:],
	}
	for name, part := range splits {
		if err := SaveSplit(cfg.OutputDir, name, toSplit(part)); err != nil {
			return nil, err
		}
	}

	source := "xavier"
	if vectors != nil {
		source = "word2vec"
	}
	header := serialization.Header{
		ModelType: "embeddings",
		Metadata: map[string]string{
			"source":     source,
			"vocab_size": strconv.Itoa(vocab.Size()),
		},
	}
	path := filepath.Join(cfg.OutputDir, EmbeddingsFile)
	if err := serialization.WriteFile(path, map[string]*tensor.RawTensor{EmbeddingsTensor: embeddings}, header); err != nil {
		return nil, fmt.Errorf("failed to write embeddings: %w", err)
	}

	return &PrepareStats{
		Examples:   len(examples),
		VocabSize:  vocab.Size(),
		TrainSize:  nTrain,
		ValSize:    nVal,
		TestSize:   nTest,
		Pretrained: pretrained,
	}, nil
}

// readCorpus parses the TSV input, tokenizes every text and remaps
// token ids into the vocabulary in reading order, so the vocabulary
// does not depend on the split seed.
func readCorpus(f *os.File, enc TokenEncoder, vocab *Vocabulary) ([]example, error) {
	var examples []example
	idForToken := make(map[int]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		label, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no tab separator", ErrConfig, lineNo)
		}
		y, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil || (y != 0 && y != 1) {
			return nil, fmt.Errorf("%w: line %d has label %q, expected 0 or 1", ErrConfig, lineNo, label)
		}

		raw := enc.Encode(text)
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: line %d has no tokens", ErrConfig, lineNo)
		}
		tokens := make([]int, len(raw))
		for i, id := range raw {
			compact, seen := idForToken[id]
			if !seen {
				compact = vocab.Add(enc.Decode([]int{id}))
				idForToken[id] = compact
			}
			tokens[i] = compact
		}
		examples = append(examples, example{tokens: tokens, label: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: input has no examples", ErrConfig)
	}
	return examples, nil
}

func toSplit(examples []example) *Split {
	split := &Split{
		XIndexes: make([][]int, len(examples)),
		YLabels:  make([]int, len(examples)),
	}
	for i, ex := range examples {
		split.XIndexes[i] = ex.tokens
		split.YLabels[i] = ex.label
	}
	return split
}

// loadWordVectors reads a word2vec-style text file: an optional
// "count dim" header line, then one "word v1 v2 ... vdim" per line.
func loadWordVectors(path string, dim int) (map[string][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vectors file: %w", err)
	}
	defer f.Close()

	vectors := make(map[string][]float32)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			// "count dim" header
			if fileDim, err := strconv.Atoi(fields[1]); err == nil {
				if fileDim != dim {
					return nil, fmt.Errorf("%w: vectors file has dimension %d, expected %d",
						ErrConfig, fileDim, dim)
				}
				continue
			}
		}
		if len(fields) != dim+1 {
			return nil, fmt.Errorf("%w: vectors line %d has %d values, expected %d",
				ErrConfig, lineNo, len(fields)-1, dim)
		}
		vec := make([]float32, dim)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: vectors line %d: %v", ErrConfig, lineNo, err)
			}
			vec[i] = float32(v)
		}
		vectors[fields[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vectors file: %w", err)
	}
	return vectors, nil
}

// buildEmbeddings fills the [V, dim] table. With pretrained vectors,
// each token row comes from the vectors file when present and small
// uniform noise otherwise; without, the whole table is Xavier-uniform.
// Row 0 stays zero either way.
func buildEmbeddings(vocab *Vocabulary, vectors map[string][]float32, dim int, rng *rand.Rand) (*tensor.RawTensor, int) {
	v := vocab.Size()
	raw, err := tensor.NewRaw(tensor.Shape{v, dim}, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("data: embeddings table: %v", err))
	}
	table := raw.AsFloat32()

	xavierBound := math.Sqrt(6.0 / float64(v+dim))
	pretrained := 0
	for row := 1; row < v; row++ {
		token, _ := vocab.Token(row)
		dst := table[row*dim : (row+1)*dim]

		if vec, ok := vectors[token]; ok {
			copy(dst, vec)
			pretrained++
			continue
		}
		bound := xavierBound
		if vectors != nil {
			// Convention for words missing from pretrained vectors.
			bound = 0.25
		}
		for i := range dst {
			dst[i] = float32((rng.Float64()*2 - 1) * bound)
		}
	}
	return raw, pretrained
}
