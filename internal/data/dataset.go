package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentio-ml/sentio/internal/serialization"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Files inside a dataset directory.
const (
	VocabFile      = "vocab.txt"
	EmbeddingsFile = "embeddings.sentio"

	// EmbeddingsTensor is the tensor name inside EmbeddingsFile.
	EmbeddingsTensor = "embeddings"
)

// Split names. These are the only valid ones.
const (
	SplitTraining   = "training"
	SplitValidation = "validation"
	SplitTest       = "test"
)

// Split is one labelled portion of a dataset: parallel arrays of token
// index sequences and binary labels.
type Split struct {
	XIndexes [][]int `json:"xIndexes"`
	YLabels  []int   `json:"yLabels"`
}

// Size returns the number of examples.
func (s *Split) Size() int {
	return len(s.XIndexes)
}

// Clone deep-copies the split. Batch datasets pad their input in
// place, so callers that reuse a split across datasets hand each one
// its own copy.
func (s *Split) Clone() *Split {
	out := &Split{
		XIndexes: make([][]int, len(s.XIndexes)),
		YLabels:  append([]int(nil), s.YLabels...),
	}
	for i, seq := range s.XIndexes {
		out.XIndexes[i] = append([]int(nil), seq...)
	}
	return out
}

// Validate checks the parallel-array invariants: equal lengths, labels
// in {0,1}, sequences non-empty with token indexes in [1, vocabSize).
// A vocabSize of 0 skips the upper bound check.
func (s *Split) Validate(vocabSize int) error {
	if len(s.XIndexes) != len(s.YLabels) {
		return fmt.Errorf("%w: xIndexes has %d rows but yLabels has %d",
			ErrConfig, len(s.XIndexes), len(s.YLabels))
	}
	for i, label := range s.YLabels {
		if label != 0 && label != 1 {
			return fmt.Errorf("%w: label at row %d is %d, expected 0 or 1", ErrConfig, i, label)
		}
	}
	for i, seq := range s.XIndexes {
		if len(seq) == 0 {
			return fmt.Errorf("%w: sequence at row %d is empty", ErrConfig, i)
		}
		for _, tok := range seq {
			if tok < 1 {
				return fmt.Errorf("%w: sequence at row %d contains token index %d, expected >= 1 (0 is the padding sentinel)",
					ErrConfig, i, tok)
			}
			if vocabSize > 0 && tok >= vocabSize {
				return fmt.Errorf("%w: sequence at row %d contains token index %d, vocabulary has %d entries",
					ErrConfig, i, tok, vocabSize)
			}
		}
	}
	return nil
}

// Dataset is one dataset directory: the vocabulary and the shared
// embeddings table, with splits loaded on demand.
type Dataset struct {
	dir        string
	vocab      *Vocabulary
	embeddings *tensor.RawTensor
}

// LoadDataset opens a dataset directory, loading the vocabulary and
// embeddings and cross-checking them: the embeddings table must have
// exactly one row per vocabulary entry.
func LoadDataset(dir string) (*Dataset, error) {
	vocab, err := LoadVocabulary(filepath.Join(dir, VocabFile))
	if err != nil {
		return nil, err
	}

	embeddings, err := loadEmbeddings(filepath.Join(dir, EmbeddingsFile))
	if err != nil {
		return nil, err
	}

	if rows := embeddings.Shape()[0]; rows != vocab.Size() {
		return nil, fmt.Errorf("%w: embeddings table has %d rows but vocabulary has %d entries",
			ErrConfig, rows, vocab.Size())
	}

	return &Dataset{dir: dir, vocab: vocab, embeddings: embeddings}, nil
}

// Vocab returns the vocabulary.
func (d *Dataset) Vocab() *Vocabulary {
	return d.vocab
}

// Embeddings returns the shared pretrained embeddings table,
// float32[V][embedDim] with row 0 the pad row.
func (d *Dataset) Embeddings() *tensor.RawTensor {
	return d.embeddings
}

// EmbedDim returns the embedding width.
func (d *Dataset) EmbedDim() int {
	return d.embeddings.Shape()[1]
}

// LoadSplit reads and validates one split by name. Unknown names are
// configuration errors.
func (d *Dataset) LoadSplit(name string) (*Split, error) {
	switch name {
	case SplitTraining, SplitValidation, SplitTest:
	default:
		return nil, fmt.Errorf("%w: unknown split %q, expected %q, %q or %q",
			ErrConfig, name, SplitTraining, SplitValidation, SplitTest)
	}

	path := filepath.Join(d.dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read split %s: %w", name, err)
	}

	var split Split
	if err := json.Unmarshal(raw, &split); err != nil {
		return nil, fmt.Errorf("failed to parse split %s: %w", name, err)
	}
	if err := split.Validate(d.vocab.Size()); err != nil {
		return nil, fmt.Errorf("split %s: %w", name, err)
	}
	return &split, nil
}

// loadEmbeddings reads the embeddings archive and returns the table.
func loadEmbeddings(path string) (*tensor.RawTensor, error) {
	tensors, _, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}

	table, ok := tensors[EmbeddingsTensor]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q tensor", ErrConfig, path, EmbeddingsTensor)
	}
	if table.DType() != tensor.Float32 || table.Shape().Rank() != 2 {
		return nil, fmt.Errorf("%w: embeddings tensor is %s, expected 2D float32", ErrConfig, table)
	}
	return table, nil
}

// SaveSplit writes a split as JSON. Used by dataset preparation.
func SaveSplit(dir, name string, split *Split) error {
	raw, err := json.Marshal(split)
	if err != nil {
		return fmt.Errorf("failed to encode split %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write split %s: %w", name, err)
	}
	return nil
}
