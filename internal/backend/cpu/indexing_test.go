package cpu

import (
	"testing"

	"github.com/sentio-ml/sentio/internal/tensor"
)

func TestEmbedding(t *testing.T) {
	backend := New()

	// Vocabulary of 3 rows, dim 2. Row 0 is the padding row.
	weight := newFloat32(t, tensor.Shape{3, 2}, []float32{
		0, 0,
		1, 1,
		2, 2,
	})
	indices := newInt32(t, tensor.Shape{2, 3}, []int32{1, 2, 0, 2, 2, 1})

	result := backend.Embedding(weight, indices)
	if !result.Shape().Equal(tensor.Shape{2, 3, 2}) {
		t.Fatalf("Expected shape [2, 3, 2], got %v", result.Shape())
	}

	expected := []float32{
		1, 1, 2, 2, 0, 0,
		2, 2, 2, 2, 1, 1,
	}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestEmbedding_OutOfRangePanics(t *testing.T) {
	backend := New()

	weight := newFloat32(t, tensor.Shape{2, 2}, make([]float32, 4))
	indices := newInt32(t, tensor.Shape{1}, []int32{5})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for out of range index")
		}
	}()
	backend.Embedding(weight, indices)
}
