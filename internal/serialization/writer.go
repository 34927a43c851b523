package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sentio-ml/sentio/internal/tensor"
)

const sentioVersion = "0.3.0" // Current library version

// Writer writes tensor archives in .sentio format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .sentio file writer for path. The file is
// truncated if it exists.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteTensors writes the tensors and header as a complete archive.
//
// Tensors are laid out in sorted name order so two saves of the same
// state produce byte-identical files. Each tensor starts on a 64-byte
// boundary within the data section; offsets in the header are relative
// to the data section start. The checksum covers the JSON header bytes
// followed by the full data section.
//
// The header's FormatVersion, SentioVersion, CreatedAt and Tensors
// fields are filled in here; callers set ModelType, Metadata and
// Checkpoint.
func (w *Writer) WriteTensors(tensors map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// Lay out the data section: aligned offset per tensor, zero fill
	// between them.
	header.Tensors = make([]TensorMeta, 0, len(names))
	var data []byte
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dtypeName(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		offset := alignUp(int64(len(data)))
		if pad := offset - int64(len(data)); pad > 0 {
			data = append(data, make([]byte, pad)...)
		}
		data = append(data, raw.Bytes()...)

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  append([]int(nil), raw.Shape()...),
			Offset: offset,
			Size:   int64(len(raw.Bytes())),
		})
	}

	header.FormatVersion = FormatVersion
	header.SentioVersion = sentioVersion
	if header.CreatedAt == "" {
		header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if int64(len(headerJSON)) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	checksum := ComputeChecksum(append(append([]byte(nil), headerJSON...), data...))

	// Fixed 64-byte header.
	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint64(fixed[8:16], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(data)))
	// 0x18-0x1F reserved, zero.
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Pad the JSON so the data section starts on a 64-byte boundary.
	if pad := alignUp(int64(len(headerJSON))) - int64(len(headerJSON)); pad > 0 {
		if _, err := w.file.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// Close closes the underlying file. Safe to call twice.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteFile writes a complete archive to path in one call.
func WriteFile(path string, tensors map[string]*tensor.RawTensor, header Header) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteTensors(tensors, header); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
