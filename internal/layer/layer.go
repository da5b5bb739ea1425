// Package layer provides single-example 2D convolution, max pooling and
// flatten layers over square gonum matrices.
//
// Every layer pre-allocates its buffers at construction and rewrites them on
// each call. A layer is not safe for concurrent use, and Backpropagate reads
// state left by the most recent Feedforward on the same instance, so the two
// calls must alternate.
package layer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
)

// Layer is the contract shared by all layers. T is the type of the layer's
// output, which is also the type of the gradient it receives from above.
type Layer[T any] interface {
	// Feedforward runs the forward pass and overwrites Output.
	Feedforward(input mat.Matrix) error

	// Backpropagate consumes the gradient with respect to Output and
	// overwrites InputGradients.
	Backpropagate(outputGradients T) error

	// Output returns the result of the last Feedforward.
	Output() T

	// InputGradients returns the result of the last Backpropagate.
	InputGradients() mat.Matrix
}

// Trainable is implemented by layers with learnable parameters.
type Trainable interface {
	// Optimize applies the gradients from the last Backpropagate.
	Optimize(learningRate float64) error
}

var (
	_ Layer[mat.Matrix] = (*ConvLayer)(nil)
	_ Trainable         = (*ConvLayer)(nil)
	_ Layer[mat.Matrix] = (*MaxPoolLayer)(nil)
	_ Layer[mat.Vector] = (*FlattenLayer)(nil)
)

var (
	// ErrInvalidArgument is returned by constructors for sizes that cannot form a layer.
	ErrInvalidArgument = errors.New("layer: invalid argument")

	// ErrShapeMismatch matches every *ShapeError.
	ErrShapeMismatch = errors.New("layer: shape mismatch")
)

// ShapeError describes an argument whose dimensions do not fit the layer.
// Both flags are set when the argument is neither square nor the right size.
type ShapeError struct {
	Layer string
	Op    string

	// Want is the expected side length, or the expected length for vectors.
	Want int

	Rows, Cols int

	// Vector is set when the argument was a vector; Rows holds its length.
	Vector bool

	NotSquare bool
	WrongSize bool
}

func (e *ShapeError) Error() string {
	if e.Vector {
		return fmt.Sprintf("%s %s: wrong length: got %d, want %d", e.Layer, e.Op, e.Rows, e.Want)
	}
	var kind string
	switch {
	case e.NotSquare && e.WrongSize:
		kind = "not square and wrong size"
	case e.NotSquare:
		kind = "not square"
	default:
		kind = "wrong size"
	}
	return fmt.Sprintf("%s %s: %s: got %dx%d, want %dx%d",
		e.Layer, e.Op, kind, e.Rows, e.Cols, e.Want, e.Want)
}

// Is makes errors.Is(err, ErrShapeMismatch) hold.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// checkSquare validates that m is size x size.
func checkSquare(layer, op string, m mat.Matrix, size int) error {
	r, c := m.Dims()
	notSquare := !matrix.IsSquare(m)
	wrongSize := r != size || c != size
	if !notSquare && !wrongSize {
		return nil
	}
	return &ShapeError{
		Layer:     layer,
		Op:        op,
		Want:      size,
		Rows:      r,
		Cols:      c,
		NotSquare: notSquare,
		WrongSize: wrongSize,
	}
}

// checkLength validates that v has n elements.
func checkLength(layer, op string, v mat.Vector, n int) error {
	if v.Len() == n {
		return nil
	}
	return &ShapeError{
		Layer:     layer,
		Op:        op,
		Want:      n,
		Rows:      v.Len(),
		Cols:      1,
		Vector:    true,
		WrongSize: true,
	}
}
