package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sentio-ml/sentio/internal/tensor"
)

// Reader reads tensor archives in .sentio format. Opening the file
// parses and validates the header and verifies the checksum, so a
// Reader that constructs successfully is safe to load from.
type Reader struct {
	file       *os.File
	header     Header
	dataOffset int64 // file offset where the data section starts
	dataSize   int64
	closed     bool
}

// NewReader opens a .sentio file and validates it.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file}
	if err := r.parseHeader(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := ValidateHeader(&r.header, r.dataSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return r, nil
}

func (r *Reader) parseHeader() error {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixed); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(fixed[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[8:16])
	dataSize := binary.LittleEndian.Uint64(fixed[16:24])
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if r.header.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: header says %d", ErrUnsupportedVersion, r.header.FormatVersion)
	}

	r.dataOffset = FixedHeaderSize + alignUp(int64(headerSize))
	r.dataSize = int64(dataSize)

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() < r.dataOffset+r.dataSize {
		return fmt.Errorf("file truncated: %d bytes, need %d", info.Size(), r.dataOffset+r.dataSize)
	}

	// The checksum spans the JSON header and the data section. Stream
	// the data through the hash rather than holding a second copy.
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to data section: %w", err)
	}
	computed, err := ComputeChecksumReader(io.MultiReader(
		bytes.NewReader(headerJSON),
		io.LimitReader(r.file, r.dataSize),
	))
	if err != nil {
		return fmt.Errorf("failed to read data for checksum: %w", err)
	}
	return ValidateChecksum(computed, stored)
}

// Header returns the parsed archive header.
func (r *Reader) Header() Header {
	return r.header
}

// Metadata returns the header's metadata map.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns all tensor names in header order.
func (r *Reader) TensorNames() []string {
	return r.header.TensorNames()
}

// ReadTensor loads a single named tensor.
func (r *Reader) ReadTensor(name string) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, ok := r.header.TensorInfo(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}

	dtype, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor %s: %w", name, err)
	}
	if _, err := io.ReadFull(r.file, raw.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	return raw, nil
}

// ReadTensors loads every tensor in the archive.
func (r *Reader) ReadTensors() (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	out := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.ReadTensor(meta.Name)
		if err != nil {
			return nil, err
		}
		out[meta.Name] = raw
	}
	return out, nil
}

// Close closes the underlying file. Safe to call twice.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFile loads every tensor and the header from path in one call.
func ReadFile(path string) (map[string]*tensor.RawTensor, Header, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer r.Close()

	tensors, err := r.ReadTensors()
	if err != nil {
		return nil, Header{}, err
	}
	return tensors, r.Header(), nil
}
