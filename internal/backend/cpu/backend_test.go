package cpu

import (
	"math"
	"testing"

	"github.com/sentio-ml/sentio/internal/tensor"
)

func newFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func newInt32(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsInt32(), data)
	return raw
}

func approxEqual(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestAdd(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := newFloat32(t, tensor.Shape{2, 2}, []float32{10, 20, 30, 40})

	result := backend.Add(a, b)
	expected := []float32{11, 22, 33, 44}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestSub(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{3}, []float32{5, 7, 9})
	b := newFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})

	result := backend.Sub(a, b)
	expected := []float32{4, 5, 6}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestMulDiv(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2}, []float32{6, 8})
	b := newFloat32(t, tensor.Shape{2}, []float32{3, 2})

	mul := backend.Mul(a, b)
	if mul.AsFloat32()[0] != 18 || mul.AsFloat32()[1] != 16 {
		t.Errorf("Mul: expected [18 16], got %v", mul.AsFloat32())
	}

	div := backend.Div(a, b)
	if div.AsFloat32()[0] != 2 || div.AsFloat32()[1] != 4 {
		t.Errorf("Div: expected [2 4], got %v", div.AsFloat32())
	}
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()

	// [2, 3] + [3] broadcasts the vector across rows.
	a := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := newFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

	result := backend.Add(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Expected shape [2, 3], got %v", result.Shape())
	}
	expected := []float32{11, 22, 33, 14, 25, 36}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestMul_BroadcastMask(t *testing.T) {
	backend := New()

	// [2, 2, 2] * [2, 1, 2] broadcasts along the middle dimension, the
	// layout attention masks use.
	a := newFloat32(t, tensor.Shape{2, 2, 2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	b := newFloat32(t, tensor.Shape{2, 1, 2}, []float32{1, 0, 0, 1})

	result := backend.Mul(a, b)
	expected := []float32{1, 0, 3, 0, 0, 6, 0, 8}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestAdd_ShapeMismatchPanics(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
	b := newFloat32(t, tensor.Shape{2, 4}, make([]float32, 8))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for incompatible shapes")
		}
	}()
	backend.Add(a, b)
}

func TestMulScalar(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{4}, []float32{1, -2, 3, -4})
	result := backend.MulScalar(x, 0.5)

	expected := []float32{0.5, -1, 1.5, -2}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestOpsAllocateFreshOutputs(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2}, []float32{1, 2})
	b := newFloat32(t, tensor.Shape{2}, []float32{3, 4})

	result := backend.Add(a, b)
	if result == a || result == b {
		t.Fatal("Add must allocate a fresh output tensor")
	}
	if a.AsFloat32()[0] != 1 || b.AsFloat32()[0] != 3 {
		t.Error("Inputs must not be modified")
	}
}
