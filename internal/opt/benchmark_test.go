// Package opt provides benchmarks for the gradient ascent update.
package opt

import (
	"math/rand"
	"testing"
)

// fillRandom fills a slice with random values.
func fillRandom(slice []float64) {
	for i := range slice {
		slice[i] = rand.Float64()
	}
}

// BenchmarkGradientAscentStep benchmarks the allocating Step method.
func BenchmarkGradientAscentStep(b *testing.B) {
	step := GradientAscent{LearningRate: 0.01}
	params := make([]float64, 1000)
	gradients := make([]float64, 1000)
	fillRandom(params)
	fillRandom(gradients)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = step.Step(params, gradients)
	}
}

// BenchmarkGradientAscentStepInPlace benchmarks the StepInPlace method.
func BenchmarkGradientAscentStepInPlace(b *testing.B) {
	step := GradientAscent{LearningRate: 0.01}
	params := make([]float64, 1000)
	gradients := make([]float64, 1000)
	fillRandom(params)
	fillRandom(gradients)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		step.StepInPlace(params, gradients)
	}
}
