// Package tensor provides the dtype-erased RawTensor buffer, the typed
// Tensor view over it, and the Backend interface the compute layers
// implement.
package tensor

import (
	"fmt"
	"unsafe"
)

// Device identifies where a tensor's buffer lives. Only CPU execution is
// supported; the type exists so backends stay honest about placement.
type Device uint8

// CPU is the only device.
const CPU Device = 0

// String returns the device name.
func (d Device) String() string {
	if d == CPU {
		return "cpu"
	}
	return fmt.Sprintf("Device(%d)", uint8(d))
}

// RawTensor is an untyped dense tensor: a contiguous row-major byte
// buffer plus shape, dtype and device. Backends operate on RawTensors;
// the typed Tensor wrapper adds element-type safety on top.
//
// Identity matters: the gradient tape keys gradients by *RawTensor
// pointer, so an operation's output must be a fresh allocation.
type RawTensor struct {
	shape  Shape
	dtype  DataType
	data   []byte
	device Device
}

// NewRaw allocates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if device != CPU {
		return nil, fmt.Errorf("tensor: unsupported device %s", device)
	}

	size := shape.NumElements() * dtype.Size()
	return &RawTensor{
		shape:  shape.Clone(),
		dtype:  dtype,
		data:   make([]byte, size),
		device: device,
	}, nil
}

// Shape returns the tensor shape. Callers must not mutate it.
func (t *RawTensor) Shape() Shape {
	return t.shape
}

// DType returns the element type.
func (t *RawTensor) DType() DataType {
	return t.dtype
}

// Device returns the device the buffer lives on.
func (t *RawTensor) Device() Device {
	return t.device
}

// NumElements returns the total element count.
func (t *RawTensor) NumElements() int {
	return t.shape.NumElements()
}

// Bytes returns the backing buffer. Serialization reads and writes
// tensors through this view.
func (t *RawTensor) Bytes() []byte {
	return t.data
}

// AsFloat32 reinterprets the buffer as []float32.
// Panics if the dtype is not Float32.
func (t *RawTensor) AsFloat32() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor: AsFloat32 on %s tensor", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// AsInt32 reinterprets the buffer as []int32.
// Panics if the dtype is not Int32.
func (t *RawTensor) AsInt32() []int32 {
	if t.dtype != Int32 {
		panic(fmt.Sprintf("tensor: AsInt32 on %s tensor", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// Clone returns a deep copy with its own buffer.
func (t *RawTensor) Clone() *RawTensor {
	out, err := NewRaw(t.shape, t.dtype, t.device)
	if err != nil {
		panic(fmt.Sprintf("tensor: clone: %v", err))
	}
	copy(out.data, t.data)
	return out
}

// WithShape returns a view-copy of the tensor with a new shape holding
// the same element count. The data is copied, not aliased.
func (t *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("tensor: cannot reshape %v (%d elements) to %v (%d elements)",
			t.shape, t.NumElements(), shape, shape.NumElements())
	}
	out, err := NewRaw(shape, t.dtype, t.device)
	if err != nil {
		return nil, err
	}
	copy(out.data, t.data)
	return out, nil
}

// String formats a short description, for debugging.
func (t *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s, %s, %s)", t.shape, t.dtype, t.device)
}
