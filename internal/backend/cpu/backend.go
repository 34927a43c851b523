// Package cpu implements the tensor.Backend contract with plain Go
// kernels. It is the only compute backend; the autodiff decorator wraps
// it for training.
package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/parallel"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// Backend executes tensor operations on the CPU. Every operation
// allocates a fresh output; inputs are never written to.
type Backend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend. Matrix-multiply rows are partitioned
// across goroutines when the workload is large enough; partitioning is
// per output row, so results are bitwise identical to sequential
// execution.
func New() *Backend {
	return &Backend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend with intra-op parallelism off.
func NewSequential() *Backend {
	return &Backend{device: tensor.CPU}
}

// Name returns "cpu".
func (c *Backend) Name() string {
	return "cpu"
}

// Device returns the CPU device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// Add computes a + b with broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub computes a - b with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul computes a * b element-wise with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div computes a / b element-wise with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// binaryOp applies op element-wise over broadcast-aligned operands.
func (c *Backend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s (float32 only)", name, a.DType(), b.DType()))
	}

	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	dst := result.AsFloat32()

	// Fast path: identical shapes need no index mapping.
	if a.Shape().Equal(b.Shape()) {
		for i := range dst {
			dst[i] = op(aData[i], bData[i])
		}
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		ai, bi := 0, 0
		remaining := i
		for d := 0; d < len(outShape); d++ {
			coord := remaining / outStrides[d]
			remaining %= outStrides[d]
			ai += coord * aStrides[d]
			bi += coord * bStrides[d]
		}
		dst[i] = op(aData[ai], bData[bi])
	}
	return result
}

// broadcastStrides right-aligns shape against outShape and returns
// per-output-dimension strides into the operand, with 0 for dimensions
// the operand broadcasts over.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := shape.ComputeStrides()
	out := make([]int, len(outShape))
	offset := len(outShape) - len(shape)

	for d := range outShape {
		if d < offset {
			continue
		}
		srcDim := d - offset
		if shape[srcDim] == 1 && outShape[d] != 1 {
			continue
		}
		out[d] = strides[srcDim]
	}
	return out
}
