// Package gocnn re-exports the convolution, max pooling and flatten layers
// for use outside this module.
package gocnn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCNN/internal/layer"
	"github.com/FlavioCFOliveira/GoCNN/internal/loss"
	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
	"github.com/FlavioCFOliveira/GoCNN/internal/opt"
)

// Re-export common types for easier access
type (
	ConvLayer    = layer.ConvLayer
	MaxPoolLayer = layer.MaxPoolLayer
	FlattenLayer = layer.FlattenLayer
	ConvOption   = layer.ConvOption
	ShapeError   = layer.ShapeError
	Trainable    = layer.Trainable
	Loss         = loss.Loss
	MSE          = loss.MSE
	L1Loss       = loss.L1Loss
	Objective    = loss.Objective

	// MatrixLayer is a layer whose output is a matrix.
	MatrixLayer = layer.Layer[mat.Matrix]

	// VectorLayer is a layer whose output is a vector.
	VectorLayer = layer.Layer[mat.Vector]
)

// Errors
var (
	ErrInvalidArgument     = layer.ErrInvalidArgument
	ErrShapeMismatch       = layer.ErrShapeMismatch
	ErrInvalidLearningRate = opt.ErrInvalidLearningRate
	ErrRagged              = matrix.ErrRagged
	ErrEmpty               = matrix.ErrEmpty
	ErrLengthMismatch      = loss.ErrLengthMismatch
)

// Layers
func NewConvLayer(inputSize, kernelSize int, opts ...ConvOption) (*ConvLayer, error) {
	return layer.NewConvLayer(inputSize, kernelSize, opts...)
}

func NewMaxPoolLayer(inputSize, poolSize int) (*MaxPoolLayer, error) {
	return layer.NewMaxPoolLayer(inputSize, poolSize)
}

func NewFlattenLayer(inputSize int) (*FlattenLayer, error) {
	return layer.NewFlattenLayer(inputSize)
}

// Options
func WithSeed(seed uint64) ConvOption {
	return layer.WithSeed(seed)
}

// Matrices
func FromRows(rows [][]float64) (*mat.Dense, error) {
	return matrix.FromRows(rows)
}

func ToRows(m mat.Matrix) [][]float64 {
	return matrix.ToRows(m)
}
