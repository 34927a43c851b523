package tensor

import "fmt"

// DataType identifies the element type of a RawTensor buffer.
//
// The training pipeline needs exactly two element types: float32 for
// embeddings, activations and gradients, and int32 for token indexes,
// sequence lengths and class labels.
type DataType uint8

const (
	// Float32 is the compute dtype for parameters and activations.
	Float32 DataType = iota
	// Int32 is the dtype for token indexes, lengths and labels.
	Int32
)

// Size returns the size of one element in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	default:
		panic(fmt.Sprintf("dtype: unknown DataType(%d)", uint8(dt)))
	}
}

// String returns the canonical name used in archive headers.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(dt))
	}
}

// ParseDataType maps an archive header name back to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "float32":
		return Float32, nil
	case "int32":
		return Int32, nil
	default:
		return 0, fmt.Errorf("dtype: unknown dtype %q", name)
	}
}
