package tensor

// Backend is the compute contract shared by the plain CPU backend and
// the autodiff decorator that wraps it. All operations allocate fresh
// output tensors; inputs are never modified.
//
// Shape or dtype violations panic: they are programmer errors, not
// runtime conditions the training loop should try to recover from.
type Backend interface {
	// Name identifies the backend, e.g. "cpu" or "autodiff(cpu)".
	Name() string
	// Device returns the device this backend computes on.
	Device() Device

	// Add computes a + b with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	// Sub computes a - b with broadcasting.
	Sub(a, b *RawTensor) *RawTensor
	// Mul computes a * b element-wise with broadcasting.
	Mul(a, b *RawTensor) *RawTensor
	// Div computes a / b element-wise with broadcasting.
	Div(a, b *RawTensor) *RawTensor
	// MulScalar scales every element by scalar.
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// MatMul computes the 2D matrix product [m,k] x [k,n] -> [m,n].
	MatMul(a, b *RawTensor) *RawTensor
	// BatchMatMul computes [b,m,k] x [b,k,n] -> [b,m,n].
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Reshape returns a copy of x with a new shape of equal element count.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	// Transpose permutes dimensions. Without axes, reverses them.
	Transpose(x *RawTensor, axes ...int) *RawTensor
	// Cat concatenates tensors along dim. All other dims must match.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	// Chunk splits x into n equal parts along dim.
	Chunk(x *RawTensor, n, dim int) []*RawTensor

	// Softmax normalizes along dim with max-shifting for stability.
	Softmax(x *RawTensor, dim int) *RawTensor
	// Sigmoid computes 1 / (1 + exp(-x)).
	Sigmoid(x *RawTensor) *RawTensor
	// Tanh computes the hyperbolic tangent.
	Tanh(x *RawTensor) *RawTensor
	// ReLU computes max(x, 0).
	ReLU(x *RawTensor) *RawTensor

	// Sum reduces all elements to a scalar-shaped tensor.
	Sum(x *RawTensor) *RawTensor
	// Argmax returns int32 indexes of the maximum along dim.
	Argmax(x *RawTensor, dim int) *RawTensor

	// Embedding gathers rows of weight [V,d] by int32 indices,
	// producing [...indices.shape, d].
	Embedding(weight, indices *RawTensor) *RawTensor
}
