package cpu

import (
	"math/rand"
	"testing"

	"github.com/sentio-ml/sentio/internal/tensor"
)

func TestMatMul(t *testing.T) {
	backend := New()

	// [2, 3] x [3, 2] -> [2, 2]
	a := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := newFloat32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Expected shape [2, 2], got %v", result.Shape())
	}

	// Row 0: [1*7+2*9+3*11, 1*8+2*10+3*12] = [58, 64]
	// Row 1: [4*7+5*9+6*11, 4*8+5*10+6*12] = [139, 154]
	expected := []float32{58, 64, 139, 154}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestMatMul_Identity(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	eye := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 0, 0, 1})

	result := backend.MatMul(a, eye)
	for i, exp := range []float32{1, 2, 3, 4} {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestMatMul_InnerDimMismatchPanics(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
	b := newFloat32(t, tensor.Shape{4, 2}, make([]float32, 8))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for mismatched inner dimensions")
		}
	}()
	backend.MatMul(a, b)
}

func TestMatMul_ParallelMatchesSequential(t *testing.T) {
	// Row partitioning must produce bit-identical results.
	par := New()
	seq := NewSequential()

	rng := rand.New(rand.NewSource(7))
	m, k, n := 65, 33, 17
	aData := make([]float32, m*k)
	bData := make([]float32, k*n)
	for i := range aData {
		aData[i] = float32(rng.NormFloat64())
	}
	for i := range bData {
		bData[i] = float32(rng.NormFloat64())
	}

	a := newFloat32(t, tensor.Shape{m, k}, aData)
	b := newFloat32(t, tensor.Shape{k, n}, bData)

	got := par.MatMul(a, b).AsFloat32()
	want := seq.MatMul(a, b).AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Index %d: parallel %v != sequential %v", i, got[i], want[i])
		}
	}
}

func TestBatchMatMul(t *testing.T) {
	backend := New()

	// Two independent [2, 2] x [2, 2] products.
	a := newFloat32(t, tensor.Shape{2, 2, 2}, []float32{
		1, 2, 3, 4, // batch 0
		1, 0, 0, 1, // batch 1: identity
	})
	b := newFloat32(t, tensor.Shape{2, 2, 2}, []float32{
		5, 6, 7, 8, // batch 0
		9, 10, 11, 12, // batch 1
	})

	result := backend.BatchMatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Expected shape [2, 2, 2], got %v", result.Shape())
	}

	expected := []float32{
		19, 22, 43, 50, // batch 0: [1 2; 3 4] x [5 6; 7 8]
		9, 10, 11, 12, // batch 1: identity x b
	}
	for i, exp := range expected {
		if result.AsFloat32()[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, result.AsFloat32()[i])
		}
	}
}

func TestBatchMatMul_BatchMismatchPanics(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 2, 2}, make([]float32, 8))
	b := newFloat32(t, tensor.Shape{3, 2, 2}, make([]float32, 12))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for mismatched batch dimensions")
		}
	}()
	backend.BatchMatMul(a, b)
}
