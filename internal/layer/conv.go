package layer

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/GoCNN/internal/activations"
	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
	"github.com/FlavioCFOliveira/GoCNN/internal/opt"
)

// ConvLayer is a single-channel 2D convolution layer with ReLU activation.
//
// The forward pass is a correlation (the kernel is not flipped) over the
// input zero-padded by kernelSize/2 on every side, so the output has the same
// size as the input. For even kernel sizes the last padded row and column are
// never read.
type ConvLayer struct {
	inputSize  int
	kernelSize int
	padOffset  int

	kernel *mat.Dense
	bias   float64

	activation activations.Activation

	// Forward buffers, rewritten by every Feedforward.
	inputPadded *mat.Dense
	output      *mat.Dense

	// Backward buffers, zeroed and rewritten by every Backpropagate.
	kernelGradients      *mat.Dense
	biasGradient         float64
	inputGradientsPadded *mat.Dense
	inputGradients       *mat.Dense
}

// ConvOption configures a ConvLayer at construction.
type ConvOption func(*convConfig)

type convConfig struct {
	src rand.Source
}

// WithSource sets the random source used to initialize the kernel and bias.
// Without it the global source of golang.org/x/exp/rand is used.
func WithSource(src rand.Source) ConvOption {
	return func(c *convConfig) { c.src = src }
}

// WithSeed is shorthand for WithSource(rand.NewSource(seed)).
func WithSeed(seed uint64) ConvOption {
	return WithSource(rand.NewSource(seed))
}

// NewConvLayer creates a convolution layer for inputSize x inputSize inputs
// with a kernelSize x kernelSize kernel. Kernel weights and bias are drawn
// independently and uniformly from [0, 1).
//
// It returns an error wrapping ErrInvalidArgument if kernelSize < 1 or
// inputSize < kernelSize.
func NewConvLayer(inputSize, kernelSize int, opts ...ConvOption) (*ConvLayer, error) {
	if kernelSize < 1 || inputSize < kernelSize {
		return nil, fmt.Errorf("%w: conv layer with input size %d and kernel size %d",
			ErrInvalidArgument, inputSize, kernelSize)
	}

	var cfg convConfig
	for _, o := range opts {
		o(&cfg)
	}

	padOffset := kernelSize / 2
	paddedSize := inputSize + 2*padOffset

	c := &ConvLayer{
		inputSize:            inputSize,
		kernelSize:           kernelSize,
		padOffset:            padOffset,
		kernel:               matrix.NewSquare(kernelSize),
		activation:           activations.ReLU{},
		inputPadded:          matrix.NewSquare(paddedSize),
		output:               matrix.NewSquare(inputSize),
		kernelGradients:      matrix.NewSquare(kernelSize),
		inputGradientsPadded: matrix.NewSquare(paddedSize),
		inputGradients:       matrix.NewSquare(inputSize),
	}

	dist := distuv.Uniform{Min: 0, Max: 1, Src: cfg.src}
	weights := matrix.Data(c.kernel)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	c.bias = dist.Rand()

	return c, nil
}

// Feedforward pads input with zeros, correlates it with the kernel, adds the
// bias and applies ReLU. input must be inputSize x inputSize.
func (c *ConvLayer) Feedforward(input mat.Matrix) error {
	if err := checkSquare("conv", "feedforward", input, c.inputSize); err != nil {
		return err
	}
	c.padInput(input)

	n := c.inputSize
	k := c.kernelSize
	padded := c.inputPadded.RawMatrix()
	kernel := matrix.Data(c.kernel)
	out := matrix.Data(c.output)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := c.bias
			for ki := 0; ki < k; ki++ {
				row := padded.Data[(i+ki)*padded.Stride+j:]
				kRow := kernel[ki*k:]
				for kj := 0; kj < k; kj++ {
					sum += row[kj] * kRow[kj]
				}
			}
			out[i*n+j] = c.activation.Activate(sum)
		}
	}
	return nil
}

// Backpropagate computes the gradients of the kernel, the bias and the input
// from outputGradients, the gradient with respect to Output.
//
// It reads the padded input and output of the last Feedforward. Calling it
// before any Feedforward uses the zeroed buffers from construction, which
// yields all-zero gradients; calling it after a failed Feedforward uses
// whatever the last successful one left behind.
func (c *ConvLayer) Backpropagate(outputGradients mat.Matrix) error {
	if err := checkSquare("conv", "backpropagate", outputGradients, c.inputSize); err != nil {
		return err
	}

	c.inputGradientsPadded.Zero()
	c.inputGradients.Zero()
	c.kernelGradients.Zero()
	c.biasGradient = 0

	n := c.inputSize
	k := c.kernelSize
	padded := c.inputPadded.RawMatrix()
	gradPadded := c.inputGradientsPadded.RawMatrix()
	kernel := matrix.Data(c.kernel)
	gradKernel := matrix.Data(c.kernelGradients)
	out := matrix.Data(c.output)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			// Gate on the stored activation, not the pre-activation sum.
			delta := outputGradients.At(i, j) * c.activation.Derivative(out[i*n+j])
			c.biasGradient += delta

			for ki := 0; ki < k; ki++ {
				base := (i+ki)*padded.Stride + j
				inRow := padded.Data[base:]
				gradRow := gradPadded.Data[(i+ki)*gradPadded.Stride+j:]
				kRow := kernel[ki*k:]
				gkRow := gradKernel[ki*k:]
				for kj := 0; kj < k; kj++ {
					gradRow[kj] += kRow[kj] * delta
					gkRow[kj] += inRow[kj] * delta
				}
			}
		}
	}

	c.extractInputGradients()
	return nil
}

// Optimize adds the gradients from the last Backpropagate, scaled by
// learningRate, to the kernel and bias.
//
// This is gradient ascent: bias += biasGradient * learningRate. Callers
// minimizing a loss must pass the negated loss gradient to Backpropagate.
// A learningRate that is not strictly positive returns an error wrapping
// opt.ErrInvalidLearningRate and leaves the parameters unchanged.
func (c *ConvLayer) Optimize(learningRate float64) error {
	step := opt.GradientAscent{LearningRate: learningRate}
	if err := step.Validate(); err != nil {
		return err
	}
	c.bias = step.StepScalar(c.bias, c.biasGradient)
	step.StepInPlace(matrix.Data(c.kernel), matrix.Data(c.kernelGradients))
	return nil
}

// padInput zero-fills inputPadded and copies input into its center.
func (c *ConvLayer) padInput(input mat.Matrix) {
	c.inputPadded.Zero()
	matrix.Center(c.inputPadded, c.padOffset, c.inputSize).Copy(input)
}

// extractInputGradients strips the padding from inputGradientsPadded.
func (c *ConvLayer) extractInputGradients() {
	c.inputGradients.Copy(matrix.Center(c.inputGradientsPadded, c.padOffset, c.inputSize))
}

// Output returns the activated output of the last Feedforward.
// The caller should not modify it.
func (c *ConvLayer) Output() mat.Matrix {
	return c.output
}

// InputGradients returns the gradient with respect to the unpadded input.
func (c *ConvLayer) InputGradients() mat.Matrix {
	return c.inputGradients
}

// InputGradientsPadded returns the input gradient before the padding is stripped.
func (c *ConvLayer) InputGradientsPadded() mat.Matrix {
	return c.inputGradientsPadded
}

// InputPadded returns the zero-padded copy of the last input.
func (c *ConvLayer) InputPadded() mat.Matrix {
	return c.inputPadded
}

// Kernel returns the kernel weights.
func (c *ConvLayer) Kernel() mat.Matrix {
	return c.kernel
}

// KernelGradients returns the kernel gradients of the last Backpropagate.
func (c *ConvLayer) KernelGradients() mat.Matrix {
	return c.kernelGradients
}

// Bias returns the bias.
func (c *ConvLayer) Bias() float64 {
	return c.bias
}

// BiasGradient returns the bias gradient of the last Backpropagate.
func (c *ConvLayer) BiasGradient() float64 {
	return c.biasGradient
}

// SetKernel overwrites the kernel weights.
func (c *ConvLayer) SetKernel(kernel mat.Matrix) error {
	if err := checkSquare("conv", "set kernel", kernel, c.kernelSize); err != nil {
		return err
	}
	c.kernel.Copy(kernel)
	return nil
}

// SetBias overwrites the bias.
func (c *ConvLayer) SetBias(bias float64) {
	c.bias = bias
}

// Params returns the kernel (row-major) followed by the bias (copy).
func (c *ConvLayer) Params() []float64 {
	weights := matrix.Data(c.kernel)
	params := make([]float64, len(weights)+1)
	copy(params, weights)
	params[len(weights)] = c.bias
	return params
}

// SetParams updates kernel and bias from a slice laid out like Params.
func (c *ConvLayer) SetParams(params []float64) error {
	weights := matrix.Data(c.kernel)
	if len(params) != len(weights)+1 {
		return fmt.Errorf("%w: conv params length %d, want %d",
			ErrInvalidArgument, len(params), len(weights)+1)
	}
	copy(weights, params)
	c.bias = params[len(weights)]
	return nil
}

// Gradients returns the kernel gradients followed by the bias gradient (copy).
func (c *ConvLayer) Gradients() []float64 {
	grads := matrix.Data(c.kernelGradients)
	out := make([]float64, len(grads)+1)
	copy(out, grads)
	out[len(grads)] = c.biasGradient
	return out
}

// InputSize returns the side length of accepted inputs.
func (c *ConvLayer) InputSize() int {
	return c.inputSize
}

// KernelSize returns the side length of the kernel.
func (c *ConvLayer) KernelSize() int {
	return c.kernelSize
}

// PadOffset returns the number of zero rows and columns added on each side.
func (c *ConvLayer) PadOffset() int {
	return c.padOffset
}

// String returns a string representation of the layer.
func (c *ConvLayer) String() string {
	return fmt.Sprintf("ConvLayer(input_size=%d, kernel_size=%d, padding=%d)",
		c.inputSize, c.kernelSize, c.padOffset)
}
