package layer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
)

// MaxPoolLayer implements non-overlapping 2D max pooling.
// It has no learnable parameters.
//
// The input is split into poolSize x poolSize regions and each region is
// reduced to its maximum. On the backward pass the gradient of a region goes
// to the first position, in row-major order, holding that maximum; every
// other position in the region receives zero.
type MaxPoolLayer struct {
	inputSize  int
	poolSize   int
	outputSize int

	// Copy of the last accepted input, used by Backpropagate.
	input *mat.Dense

	output         *mat.Dense
	inputGradients *mat.Dense
}

// NewMaxPoolLayer creates a max pooling layer for inputSize x inputSize
// inputs with poolSize x poolSize regions.
//
// It returns an error wrapping ErrInvalidArgument if either size is below 1
// or poolSize does not divide inputSize.
func NewMaxPoolLayer(inputSize, poolSize int) (*MaxPoolLayer, error) {
	if inputSize < 1 || poolSize < 1 || inputSize%poolSize != 0 {
		return nil, fmt.Errorf("%w: max pool layer with input size %d and pool size %d",
			ErrInvalidArgument, inputSize, poolSize)
	}

	outputSize := inputSize / poolSize
	return &MaxPoolLayer{
		inputSize:      inputSize,
		poolSize:       poolSize,
		outputSize:     outputSize,
		input:          matrix.NewSquare(inputSize),
		output:         matrix.NewSquare(outputSize),
		inputGradients: matrix.NewSquare(inputSize),
	}, nil
}

// Feedforward stores the maximum of every region in Output and caches a copy
// of input. Ties keep the first maximum met in row-major order.
func (m *MaxPoolLayer) Feedforward(input mat.Matrix) error {
	if err := checkSquare("maxpool", "feedforward", input, m.inputSize); err != nil {
		return err
	}

	p := m.poolSize
	for i := 0; i < m.outputSize; i++ {
		for j := 0; j < m.outputSize; j++ {
			row, col := i*p, j*p
			maxVal := input.At(row, col)
			for pi := 0; pi < p; pi++ {
				for pj := 0; pj < p; pj++ {
					if v := input.At(row+pi, col+pj); v > maxVal {
						maxVal = v
					}
				}
			}
			m.output.Set(i, j, maxVal)
		}
	}

	// Cache only once the outputs are written.
	m.input.Copy(input)
	return nil
}

// Backpropagate routes each entry of outputGradients to the arg-max position
// of its region in the cached input and zeroes everything else.
//
// Assignment rather than accumulation is only correct because regions never
// overlap. A region whose maximum was NaN has no matching position; its
// gradient goes to the region's top-left cell.
func (m *MaxPoolLayer) Backpropagate(outputGradients mat.Matrix) error {
	if err := checkSquare("maxpool", "backpropagate", outputGradients, m.outputSize); err != nil {
		return err
	}

	m.inputGradients.Zero()

	for i := 0; i < m.outputSize; i++ {
		for j := 0; j < m.outputSize; j++ {
			maxRow, maxCol := m.argMax(i, j)
			m.inputGradients.Set(maxRow, maxCol, outputGradients.At(i, j))
		}
	}
	return nil
}

// argMax returns the first row-major position in region (i, j) of the cached
// input whose value equals output[i][j].
func (m *MaxPoolLayer) argMax(i, j int) (int, int) {
	p := m.poolSize
	row, col := i*p, j*p
	target := m.output.At(i, j)
	for pi := 0; pi < p; pi++ {
		for pj := 0; pj < p; pj++ {
			if m.input.At(row+pi, col+pj) == target {
				return row + pi, col + pj
			}
		}
	}
	return row, col
}

// Output returns the pooled output of the last Feedforward.
func (m *MaxPoolLayer) Output() mat.Matrix {
	return m.output
}

// InputGradients returns the gradients of the last Backpropagate.
func (m *MaxPoolLayer) InputGradients() mat.Matrix {
	return m.inputGradients
}

// Input returns the cached copy of the last accepted input.
func (m *MaxPoolLayer) Input() mat.Matrix {
	return m.input
}

// InputSize returns the side length of accepted inputs.
func (m *MaxPoolLayer) InputSize() int {
	return m.inputSize
}

// PoolSize returns the side length of a pooling region.
func (m *MaxPoolLayer) PoolSize() int {
	return m.poolSize
}

// OutputSize returns the side length of the output.
func (m *MaxPoolLayer) OutputSize() int {
	return m.outputSize
}

// String returns a string representation of the layer.
func (m *MaxPoolLayer) String() string {
	return fmt.Sprintf("MaxPoolLayer(input_size=%d, pool_size=%d)", m.inputSize, m.poolSize)
}
