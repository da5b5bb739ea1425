package layer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
)

// FlattenLayer reshapes an N x N matrix into a vector of length N*N and maps
// gradients back. Element (row, col) lives at index row*N + col in both
// directions.
type FlattenLayer struct {
	inputSize int

	output         *mat.VecDense
	inputGradients *mat.Dense
}

// NewFlattenLayer creates a flatten layer for inputSize x inputSize inputs.
// It returns an error wrapping ErrInvalidArgument if inputSize < 1.
func NewFlattenLayer(inputSize int) (*FlattenLayer, error) {
	if inputSize < 1 {
		return nil, fmt.Errorf("%w: flatten layer with input size %d", ErrInvalidArgument, inputSize)
	}
	return &FlattenLayer{
		inputSize:      inputSize,
		output:         mat.NewVecDense(inputSize*inputSize, nil),
		inputGradients: matrix.NewSquare(inputSize),
	}, nil
}

// Feedforward copies input into Output in row-major order.
func (f *FlattenLayer) Feedforward(input mat.Matrix) error {
	if err := checkSquare("flatten", "feedforward", input, f.inputSize); err != nil {
		return err
	}

	n := f.inputSize
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f.output.SetVec(f.index(i, j), input.At(i, j))
		}
	}
	return nil
}

// Backpropagate reshapes outputGradients back into InputGradients.
// outputGradients must have length N*N.
func (f *FlattenLayer) Backpropagate(outputGradients mat.Vector) error {
	if err := checkLength("flatten", "backpropagate", outputGradients, f.OutputSize()); err != nil {
		return err
	}

	n := f.inputSize
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f.inputGradients.Set(i, j, outputGradients.AtVec(f.index(i, j)))
		}
	}
	return nil
}

// index maps (row, col) of the input to its position in the output.
func (f *FlattenLayer) index(row, col int) int {
	return row*f.inputSize + col
}

// Output returns the flattened input of the last Feedforward.
func (f *FlattenLayer) Output() mat.Vector {
	return f.output
}

// InputGradients returns the reshaped gradients of the last Backpropagate.
func (f *FlattenLayer) InputGradients() mat.Matrix {
	return f.inputGradients
}

// InputSize returns the side length of accepted inputs.
func (f *FlattenLayer) InputSize() int {
	return f.inputSize
}

// OutputSize returns the length of the output vector.
func (f *FlattenLayer) OutputSize() int {
	return f.inputSize * f.inputSize
}

// String returns a string representation of the layer.
func (f *FlattenLayer) String() string {
	return fmt.Sprintf("FlattenLayer(input_size=%d, output_size=%d)", f.inputSize, f.OutputSize())
}
