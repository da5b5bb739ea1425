// Package opt provides parameter update rules.
package opt

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidLearningRate is returned for a learning rate that is not strictly positive.
var ErrInvalidLearningRate = errors.New("opt: learning rate must be positive")

// GradientAscent moves parameters along their gradients:
// params = params + lr * gradients.
//
// The sign is intentional. Layers in this module accumulate gradients of an
// objective to be maximized, so the update adds them. Callers minimizing a
// loss feed the negated loss gradient into Backpropagate instead of flipping
// the sign here.
type GradientAscent struct {
	LearningRate float64
}

// Validate reports whether the learning rate can be used.
func (g GradientAscent) Validate() error {
	// Written as a negated comparison so NaN is rejected too.
	if !(g.LearningRate > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidLearningRate, g.LearningRate)
	}
	return nil
}

// Step computes updated parameters: params + lr * gradients.
// Returns a new slice with updated values
func (g GradientAscent) Step(params, gradients []float64) []float64 {
	result := make([]float64, len(params))
	copy(result, params)
	g.StepInPlace(result, gradients)
	return result
}

// StepInPlace updates params in-place: params += lr * gradients.
// It panics if the slices differ in length.
func (g GradientAscent) StepInPlace(params, gradients []float64) {
	floats.AddScaled(params, g.LearningRate, gradients)
}

// StepScalar returns param + lr * gradient.
func (g GradientAscent) StepScalar(param, gradient float64) float64 {
	return param + gradient*g.LearningRate
}
