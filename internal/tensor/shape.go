package tensor

import (
	"fmt"
	"strings"
)

// Shape describes the dimensions of a tensor. A nil or empty Shape is a
// scalar with one element.
type Shape []int

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// ComputeStrides returns row-major strides for the shape.
//
// strides[i] is the flat-index distance between consecutive elements
// along dimension i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("shape: dimension %d must be positive, got %d", i, dim)
		}
	}
	return nil
}

// String formats the shape as [d0, d1, ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// BroadcastShapes computes the result shape of broadcasting a against b
// using NumPy right-alignment rules: trailing dimensions must be equal
// or one of them must be 1.
func BroadcastShapes(a, b Shape) (Shape, error) {
	rank := len(a)
	if len(b) > rank {
		rank = len(b)
	}

	out := make(Shape, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if i < len(a) {
			da = a[len(a)-1-i]
		}
		if i < len(b) {
			db = b[len(b)-1-i]
		}

		switch {
		case da == db:
			out[rank-1-i] = da
		case da == 1:
			out[rank-1-i] = db
		case db == 1:
			out[rank-1-i] = da
		default:
			return nil, fmt.Errorf("shape: cannot broadcast %v with %v", a, b)
		}
	}
	return out, nil
}
