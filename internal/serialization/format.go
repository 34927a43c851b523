package serialization

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Format constants for the .sentio archive.
const (
	MagicBytes    = "SNTO" // File signature at offset 0x00
	FormatVersion = 1      // Only version so far

	// FixedHeaderSize is the size of the binary header that precedes the
	// JSON header. Layout:
	//
	//	0x00  magic "SNTO"            (4 bytes)
	//	0x04  format version          (uint32 LE)
	//	0x08  JSON header size        (uint64 LE, unpadded)
	//	0x10  data section size       (uint64 LE, including padding)
	//	0x18  reserved                (uint64, zero)
	//	0x20  SHA-256 checksum        (32 bytes, over JSON header + data)
	//	0x40  JSON header, zero-padded to a 64-byte boundary
	FixedHeaderSize = 64
	ChecksumOffset  = 0x20
	ChecksumSize    = 32

	// Alignment is the boundary the JSON header is padded to and every
	// tensor in the data section starts on.
	Alignment = 64
)

// Validation limits. Archives are loaded from disk and may be
// hand-edited or truncated, so the reader bounds everything it trusts.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// Header is the JSON header of a .sentio archive. It describes every
// tensor in the data section and carries free-form metadata plus an
// optional checkpoint block for training snapshots.
type Header struct {
	FormatVersion int               `json:"format_version"`
	SentioVersion string            `json:"sentio_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     string            `json:"created_at"` // RFC 3339, UTC
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// TensorMeta locates one tensor inside the data section. Offset is
// relative to the start of the data section, not the file.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// CheckpointMeta records training state alongside the weights so a run
// can resume where it stopped.
type CheckpointMeta struct {
	IsCheckpoint  bool              `json:"is_checkpoint"`
	Epoch         int               `json:"epoch"`
	Step          int               `json:"step"`
	Loss          float64           `json:"loss"`
	OptimizerType string            `json:"optimizer_type,omitempty"`
	LearningRate  float64           `json:"learning_rate,omitempty"`
	TrainingMeta  map[string]string `json:"training_meta,omitempty"`
}

// TensorInfo returns the metadata entry for the named tensor.
func (h *Header) TensorInfo(name string) (TensorMeta, bool) {
	for _, t := range h.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return TensorMeta{}, false
}

// TensorNames returns the names of all tensors in header order.
func (h *Header) TensorNames() []string {
	names := make([]string, len(h.Tensors))
	for i, t := range h.Tensors {
		names[i] = t.Name
	}
	return names
}

// dtypeName maps a tensor dtype to its archive header spelling.
func dtypeName(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "float32", nil
	case tensor.Int32:
		return "int32", nil
	default:
		return "", fmt.Errorf("serialization: unsupported dtype %s", dt)
	}
}

// alignUp rounds n up to the next multiple of Alignment.
func alignUp(n int64) int64 {
	pad := (Alignment - (n % Alignment)) % Alignment
	return n + pad
}
