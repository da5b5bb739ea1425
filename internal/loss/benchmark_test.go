// Package loss provides benchmarks for loss functions.
package loss

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// randomVec returns a vector of n random values in [0, 1).
func randomVec(n int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, rand.Float64())
	}
	return v
}

// BenchmarkMSEForward benchmarks MSE loss forward pass.
func BenchmarkMSEForward(b *testing.B) {
	var mse MSE
	yPred, yTrue := randomVec(1000), randomVec(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = mse.Forward(yPred, yTrue)
	}
}

// BenchmarkMSEBackwardInPlace benchmarks MSE in-place gradient computation.
func BenchmarkMSEBackwardInPlace(b *testing.B) {
	var mse MSE
	yPred, yTrue := randomVec(1000), randomVec(1000)
	grad := mat.NewVecDense(1000, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mse.BackwardInPlace(yPred, yTrue, grad)
	}
}

// BenchmarkObjectiveGradient benchmarks the negated MSE gradient.
func BenchmarkObjectiveGradient(b *testing.B) {
	obj := Objective{Loss: MSE{}}
	yPred, yTrue := randomVec(1000), randomVec(1000)
	grad := mat.NewVecDense(1000, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = obj.Gradient(yPred, yTrue, grad)
	}
}
