package cpu

import (
	"fmt"

	"github.com/sentio-ml/sentio/internal/parallel"
	"github.com/sentio-ml/sentio/internal/tensor"
)

// MatMul computes the matrix product [m,k] x [k,n] -> [m,n].
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: unsupported dtypes %s, %s (float32 only)", a.DType(), b.DType()))
	}

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v x %v", aShape, bShape))
	}
	m, k := aShape[0], aShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v x %v", aShape, bShape))
	}
	n := bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	dst := result.AsFloat32()

	// One goroutine owns each output row, so the accumulation order per
	// element matches the sequential loop exactly.
	parallel.For(m, func(i int) {
		matmulRow(dst[i*n:(i+1)*n], aData[i*k:(i+1)*k], bData, k, n)
	}, c.parallel)

	return result
}

// matmulRow computes one output row: dst = row · b.
func matmulRow(dst, row, b []float32, k, n int) {
	for j := range dst {
		dst[j] = 0
	}
	for p := 0; p < k; p++ {
		rv := row[p]
		bRow := b[p*n : (p+1)*n]
		for j := 0; j < n; j++ {
			dst[j] += rv * bRow[j]
		}
	}
}

// BatchMatMul computes [batch,m,k] x [batch,k,n] -> [batch,m,n].
func (c *Backend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("batchmatmul: unsupported dtypes %s, %s (float32 only)", a.DType(), b.DType()))
	}

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 3 || len(bShape) != 3 {
		panic(fmt.Sprintf("batchmatmul: expected 3D tensors, got %v x %v", aShape, bShape))
	}
	batch, m, k := aShape[0], aShape[1], aShape[2]
	if bShape[0] != batch || bShape[1] != k {
		panic(fmt.Sprintf("batchmatmul: shapes do not match: %v x %v", aShape, bShape))
	}
	n := bShape[2]

	result, err := tensor.NewRaw(tensor.Shape{batch, m, n}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("batchmatmul: %v", err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	dst := result.AsFloat32()

	parallel.ForBatch(batch, m, func(bi, i int) {
		aOff := bi * m * k
		bOff := bi * k * n
		outOff := bi * m * n
		matmulRow(dst[outOff+i*n:outOff+(i+1)*n], aData[aOff+i*k:aOff+(i+1)*k], bData[bOff:bOff+k*n], k, n)
	}, c.parallel)

	return result
}
