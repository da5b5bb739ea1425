// Package activations provides activation functions for the convolution layer.
package activations

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// ReLU activation function.
//
// ReLU output is positive exactly when its input is, so Derivative gives the
// same answer whether it is fed the pre-activation sum or the stored output.
// The convolution layer relies on this to gate gradients by its output buffer.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
