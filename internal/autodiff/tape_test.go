package autodiff

import (
	"testing"

	"github.com/sentio-ml/sentio/internal/backend/cpu"
	"github.com/sentio-ml/sentio/internal/tensor"
)

func TestTapeRecordsOnlyWhileRecording(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})

	b.Sigmoid(x)
	if n := b.Tape().NumOps(); n != 0 {
		t.Errorf("Expected 0 ops before StartRecording, got %d", n)
	}

	b.Tape().StartRecording()
	b.Sigmoid(x)
	b.Tanh(x)
	if n := b.Tape().NumOps(); n != 2 {
		t.Errorf("Expected 2 ops while recording, got %d", n)
	}

	b.Tape().StopRecording()
	b.ReLU(x)
	if n := b.Tape().NumOps(); n != 2 {
		t.Errorf("Expected 2 ops after StopRecording, got %d", n)
	}
}

func TestTapeClear(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})

	b.Tape().StartRecording()
	b.Sigmoid(x)
	b.Tape().Clear()

	if n := b.Tape().NumOps(); n != 0 {
		t.Errorf("Expected 0 ops after Clear, got %d", n)
	}
	if !b.Tape().IsRecording() {
		t.Error("Clear must not stop recording")
	}
}

func TestArgmaxIsNotRecorded(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 4, 3})

	b.Tape().StartRecording()
	out := b.Argmax(x, 1)
	b.Tape().StopRecording()

	if n := b.Tape().NumOps(); n != 0 {
		t.Errorf("Expected argmax to stay off the tape, got %d ops", n)
	}
	if got := out.AsInt32(); got[0] != 1 || got[1] != 0 {
		t.Errorf("Expected indices [1 0], got %v", got)
	}
}

func TestBackwardSkipsUnreachedOps(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})
	y := newFloat32(t, tensor.Shape{2}, []float32{3, 4})

	b.Tape().StartRecording()
	b.Tanh(y) // separate branch, never feeds the loss
	doubled := b.MulScalar(x, 2)
	loss := b.Sum(doubled)
	b.Tape().StopRecording()

	seed := newFloat32(t, tensor.Shape{}, []float32{1})
	grads := b.Tape().Backward(loss, seed, b.Inner())

	if _, ok := grads[y]; ok {
		t.Error("unreached branch must not receive a gradient")
	}
	grad := grads[x]
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	for i, got := range grad.AsFloat32() {
		if absf(got-2) > 1e-6 {
			t.Errorf("element %d: expected 2, got %v", i, got)
		}
	}
}

func TestBackwardChunkPartialUse(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})

	b.Tape().StartRecording()
	parts := b.Chunk(x, 2, 1)
	loss := b.Sum(parts[0]) // second chunk unused
	b.Tape().StopRecording()

	seed := newFloat32(t, tensor.Shape{}, []float32{1})
	grads := b.Tape().Backward(loss, seed, b.Inner())

	grad := grads[x]
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	expected := []float32{1, 1, 0, 0, 1, 1, 0, 0}
	for i, want := range expected {
		if got := grad.AsFloat32()[i]; absf(got-want) > 1e-6 {
			t.Errorf("element %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestBackwardLeavesTapeIntact(t *testing.T) {
	b := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})

	b.Tape().StartRecording()
	loss := b.Sum(b.Sigmoid(x))
	b.Tape().StopRecording()

	before := b.Tape().NumOps()
	seed := newFloat32(t, tensor.Shape{}, []float32{1})
	b.Tape().Backward(loss, seed, b.Inner())

	if after := b.Tape().NumOps(); after != before {
		t.Errorf("Expected %d ops after backward, got %d", before, after)
	}
}

func TestBackendName(t *testing.T) {
	b := New(cpu.New())
	if got := b.Name(); got != "autodiff(cpu)" {
		t.Errorf("Expected autodiff(cpu), got %s", got)
	}
}
