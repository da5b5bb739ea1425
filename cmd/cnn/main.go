package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCNN/internal/layer"
	"github.com/FlavioCFOliveira/GoCNN/internal/loss"
	"github.com/FlavioCFOliveira/GoCNN/internal/matrix"
)

// Demonstrates the convolution, max pooling and flatten layers on small
// hand-made inputs, then chains them into a single forward/backward pass.
func main() {
	inputSize := flag.Int("input-size", 4, "Side length of the square input")
	kernelSize := flag.Int("kernel-size", 2, "Side length of the convolution kernel")
	poolSize := flag.Int("pool-size", 2, "Side length of a max pooling region")
	lr := flag.Float64("learning-rate", 0.01, "Learning rate for the convolution update (gradient ascent)")
	seed := flag.Uint64("seed", 0, "Seed for kernel initialization (0 = time based)")
	precision := flag.Int("precision", 1, "Decimal places when printing matrices")
	flag.Parse()

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	log.Printf("input=%d kernel=%d pool=%d lr=%g seed=%d", *inputSize, *kernelSize, *poolSize, *lr, *seed)

	p := printer{precision: *precision}

	fmt.Println("=== Convolution layer ===")
	runConv(p, *inputSize, *kernelSize, *lr, *seed)

	fmt.Println("\n=== Max pooling layer ===")
	runMaxPool(p, *inputSize, *poolSize)

	fmt.Println("\n=== Flatten layer ===")
	runFlatten(p, *inputSize)

	fmt.Println("\n=== Conv -> MaxPool -> Flatten ===")
	runPipeline(p, *inputSize, *kernelSize, *poolSize, *lr, *seed)
}

func runConv(p printer, inputSize, kernelSize int, lr float64, seed uint64) {
	conv, err := layer.NewConvLayer(inputSize, kernelSize, layer.WithSeed(seed))
	if err != nil {
		log.Fatalf("Error creating conv layer: %v", err)
	}
	fmt.Println(conv)

	input := ring(inputSize)
	p.print("Convolution input (2D):", input)
	p.print("Kernel:", conv.Kernel())
	fmt.Printf("  Bias: %.4f\n", conv.Bias())

	if err := conv.Feedforward(input); err != nil {
		log.Fatalf("Error in feedforward: %v", err)
	}
	p.print("Convolution output (2D):", conv.Output())

	outputGradients := constant(inputSize, 1)
	p.print("Convolution output gradients (2D):", outputGradients)

	if err := conv.Backpropagate(outputGradients); err != nil {
		log.Fatalf("Error in backpropagation: %v", err)
	}
	p.print("Input gradients after backpropagation (2D):", conv.InputGradients())
	p.print("Kernel gradients:", conv.KernelGradients())
	fmt.Printf("  Bias gradient: %.4f\n", conv.BiasGradient())

	if err := conv.Optimize(lr); err != nil {
		log.Fatalf("Error in optimization: %v", err)
	}
	p.print("Kernel after optimization:", conv.Kernel())
	fmt.Printf("  Bias after optimization: %.4f\n", conv.Bias())
}

func runMaxPool(p printer, inputSize, poolSize int) {
	pool, err := layer.NewMaxPoolLayer(inputSize, poolSize)
	if err != nil {
		log.Fatalf("Error creating max pool layer: %v", err)
	}
	fmt.Println(pool)

	input := poolInput(inputSize)
	p.print("Pooling input (2D):", input)

	if err := pool.Feedforward(input); err != nil {
		log.Fatalf("Error in feedforward: %v", err)
	}
	p.print("Pooled output (2D):", pool.Output())

	outputGradients := ramp(pool.OutputSize())
	p.print("Pooling output gradients (2D):", outputGradients)

	if err := pool.Backpropagate(outputGradients); err != nil {
		log.Fatalf("Error in backpropagation: %v", err)
	}
	p.print("Input gradients after backpropagation (2D):", pool.InputGradients())
}

func runFlatten(p printer, inputSize int) {
	flatten, err := layer.NewFlattenLayer(inputSize)
	if err != nil {
		log.Fatalf("Error creating flatten layer: %v", err)
	}
	fmt.Println(flatten)

	input := ramp(inputSize)
	p.print("Flatten input (2D):", input)

	if err := flatten.Feedforward(input); err != nil {
		log.Fatalf("Error in feedforward: %v", err)
	}
	p.print("Flattened output (1D):", flatten.Output().T())

	if err := flatten.Backpropagate(flatten.Output()); err != nil {
		log.Fatalf("Error in backpropagation: %v", err)
	}
	p.print("Input gradients after backpropagation (2D):", flatten.InputGradients())
}

func runPipeline(p printer, inputSize, kernelSize, poolSize int, lr float64, seed uint64) {
	conv, err := layer.NewConvLayer(inputSize, kernelSize, layer.WithSeed(seed))
	if err != nil {
		log.Fatalf("Error creating conv layer: %v", err)
	}
	pool, err := layer.NewMaxPoolLayer(inputSize, poolSize)
	if err != nil {
		log.Fatalf("Error creating max pool layer: %v", err)
	}
	flatten, err := layer.NewFlattenLayer(pool.OutputSize())
	if err != nil {
		log.Fatalf("Error creating flatten layer: %v", err)
	}

	stages := []layer.Layer[mat.Matrix]{conv, pool}
	target := mat.NewVecDense(flatten.OutputSize(), nil)
	obj := loss.Objective{Loss: loss.MSE{}}

	forward := func() float64 {
		var x mat.Matrix = ring(inputSize)
		for _, s := range stages {
			if err := s.Feedforward(x); err != nil {
				log.Fatalf("Error in feedforward of %v: %v", s, err)
			}
			x = s.Output()
		}
		if err := flatten.Feedforward(x); err != nil {
			log.Fatalf("Error in feedforward of %v: %v", flatten, err)
		}
		l, err := obj.Loss.Forward(flatten.Output(), target)
		if err != nil {
			log.Fatalf("Error computing loss: %v", err)
		}
		return l
	}

	before := forward()
	p.print("Pipeline output (1D):", flatten.Output().T())
	fmt.Printf("  MSE against zero target: %.6f\n", before)

	grad := mat.NewVecDense(flatten.OutputSize(), nil)
	if err := obj.Gradient(flatten.Output(), target, grad); err != nil {
		log.Fatalf("Error computing loss gradient: %v", err)
	}
	if err := flatten.Backpropagate(grad); err != nil {
		log.Fatalf("Error in backpropagation of %v: %v", flatten, err)
	}
	g := flatten.InputGradients()
	for i := len(stages) - 1; i >= 0; i-- {
		if err := stages[i].Backpropagate(g); err != nil {
			log.Fatalf("Error in backpropagation of %v: %v", stages[i], err)
		}
		g = stages[i].InputGradients()
	}
	p.print("Pipeline input gradients (2D):", g)

	if err := conv.Optimize(lr); err != nil {
		log.Fatalf("Error in optimization: %v", err)
	}
	fmt.Printf("  Conv bias gradient: %.4f, bias after optimization: %.4f\n", conv.BiasGradient(), conv.Bias())
	fmt.Printf("  MSE after one step: %.6f\n", forward())
}

// printer writes matrices with a fixed decimal precision.
type printer struct {
	precision int
}

func (p printer) print(title string, m mat.Matrix) {
	fmt.Println(title)
	fmt.Printf("%.*f\n\n", p.precision, mat.Formatted(m, mat.Prefix("\t"), mat.Excerpt(8)))
}

// ring returns a square with ones on the border and zeros inside.
func ring(size int) *mat.Dense {
	m := matrix.NewSquare(size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if i == 0 || j == 0 || i == size-1 || j == size-1 {
				m.Set(i, j, 1)
			}
		}
	}
	return m
}

// ramp returns a square holding 1, 2, 3, ... in row-major order.
func ramp(size int) *mat.Dense {
	m := matrix.NewSquare(size)
	data := matrix.Data(m)
	for i := range data {
		data[i] = float64(i + 1)
	}
	return m
}

func constant(size int, v float64) *mat.Dense {
	m := matrix.NewSquare(size)
	data := matrix.Data(m)
	for i := range data {
		data[i] = v
	}
	return m
}

// poolInput returns the classic 4x4 pooling example, or a repeating
// pattern with ties for other sizes.
func poolInput(size int) *mat.Dense {
	if size == 4 {
		m, err := matrix.FromRows([][]float64{
			{2, 1, 6, 1},
			{3, 0, 4, 6},
			{1, 2, 4, 5},
			{3, 4, 7, 7},
		})
		if err != nil {
			log.Fatalf("Error building pooling input: %v", err)
		}
		return m
	}
	m := matrix.NewSquare(size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			m.Set(i, j, float64((i*7+j*3)%10))
		}
	}
	return m
}
