package cpu

import (
	"testing"

	"github.com/sentio-ml/sentio/internal/tensor"
)

func TestReshape(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	result := backend.Reshape(x, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", result.Shape())
	}
	// Data order is unchanged.
	for i, exp := range []float32{1, 2, 3, 4, 5, 6} {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestReshape_ElementCountMismatchPanics(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for element count mismatch")
		}
	}()
	backend.Reshape(x, tensor.Shape{4, 2})
}

func TestTranspose_2D(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	result := backend.Transpose(x)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", result.Shape())
	}
	expected := []float32{1, 4, 2, 5, 3, 6}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestTranspose_3DAxes(t *testing.T) {
	backend := New()

	// Swap the last two dims of [2, 2, 3], the attention layout move.
	x := newFloat32(t, tensor.Shape{2, 2, 3}, []float32{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})
	result := backend.Transpose(x, 0, 2, 1)

	if !result.Shape().Equal(tensor.Shape{2, 3, 2}) {
		t.Fatalf("Expected shape [2, 3, 2], got %v", result.Shape())
	}
	expected := []float32{
		1, 4, 2, 5, 3, 6,
		7, 10, 8, 11, 9, 12,
	}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestTranspose_Int32(t *testing.T) {
	backend := New()

	x := newInt32(t, tensor.Shape{2, 2}, []int32{1, 2, 3, 4})
	result := backend.Transpose(x)

	expected := []int32{1, 3, 2, 4}
	for i, exp := range expected {
		if result.AsInt32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsInt32()[i])
		}
	}
}

func TestTranspose_InvalidAxesPanics(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 2}, make([]float32, 4))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for duplicate axes")
		}
	}()
	backend.Transpose(x, 0, 0)
}

func TestCat_LastDim(t *testing.T) {
	backend := New()

	// Concatenating forward and backward LSTM outputs: [2, 2] + [2, 2]
	// along dim 1.
	a := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := newFloat32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

	result := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	if !result.Shape().Equal(tensor.Shape{2, 4}) {
		t.Fatalf("Expected shape [2, 4], got %v", result.Shape())
	}
	expected := []float32{1, 2, 5, 6, 3, 4, 7, 8}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestCat_MiddleDim(t *testing.T) {
	backend := New()

	// Reassembling per-timestep outputs: [2, 1, 2] blocks along dim 1.
	a := newFloat32(t, tensor.Shape{2, 1, 2}, []float32{1, 2, 3, 4})
	b := newFloat32(t, tensor.Shape{2, 1, 2}, []float32{5, 6, 7, 8})

	result := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Expected shape [2, 2, 2], got %v", result.Shape())
	}
	expected := []float32{1, 2, 5, 6, 3, 4, 7, 8}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestCat_ShapeMismatchPanics(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 2}, make([]float32, 4))
	b := newFloat32(t, tensor.Shape{3, 2}, make([]float32, 6))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for mismatched non-concat dimensions")
		}
	}()
	backend.Cat([]*tensor.RawTensor{a, b}, 1)
}

func TestChunk_LastDim(t *testing.T) {
	backend := New()

	// Splitting stacked gate pre-activations: [2, 4] into 4 along dim 1.
	x := newFloat32(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	parts := backend.Chunk(x, 4, 1)

	if len(parts) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(parts))
	}
	for ci, part := range parts {
		if !part.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("Chunk %d: expected shape [2, 1], got %v", ci, part.Shape())
		}
		want := []float32{float32(ci + 1), float32(ci + 5)}
		for i, exp := range want {
			if part.AsFloat32()[i] != exp {
				t.Errorf("Chunk %d index %d: expected %v, got %v", ci, i, exp, part.AsFloat32()[i])
			}
		}
	}
}

func TestChunk_MiddleDim(t *testing.T) {
	backend := New()

	// Splitting a sequence into timesteps: [1, 2, 2] into 2 along dim 1.
	x := newFloat32(t, tensor.Shape{1, 2, 2}, []float32{1, 2, 3, 4})
	parts := backend.Chunk(x, 2, 1)

	if len(parts) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(parts))
	}
	if parts[0].AsFloat32()[0] != 1 || parts[0].AsFloat32()[1] != 2 {
		t.Errorf("Chunk 0: expected [1 2], got %v", parts[0].AsFloat32())
	}
	if parts[1].AsFloat32()[0] != 3 || parts[1].AsFloat32()[1] != 4 {
		t.Errorf("Chunk 1: expected [3 4], got %v", parts[1].AsFloat32())
	}
}

func TestChunk_RoundTripsThroughCat(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 6}, []float32{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})

	parts := backend.Chunk(x, 3, 1)
	back := backend.Cat(parts, 1)

	if !back.Shape().Equal(x.Shape()) {
		t.Fatalf("Expected shape %v, got %v", x.Shape(), back.Shape())
	}
	for i, exp := range x.AsFloat32() {
		if back.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, back.AsFloat32()[i])
		}
	}
}

func TestChunk_IndivisiblePanics(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 5}, make([]float32, 10))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for indivisible chunk dimension")
		}
	}()
	backend.Chunk(x, 2, 1)
}
