// Package loss provides loss functions over flattened layer outputs.
//
// Gradients are those of the loss, to be minimized. The convolution layer
// updates by gradient ascent, so callers training toward a target pass the
// negated loss gradient into Backpropagate (see Objective).
package loss

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrLengthMismatch is returned when prediction, target and gradient lengths differ.
var ErrLengthMismatch = errors.New("loss: length mismatch")

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue mat.Vector) (float64, error)

	// BackwardInPlace stores the gradient of the loss w.r.t. prediction in grad.
	BackwardInPlace(yPred, yTrue mat.Vector, grad *mat.VecDense) error
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (MSE) Forward(yPred, yTrue mat.Vector) (float64, error) {
	n, err := checkLengths(yPred, yTrue, nil)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred.AtVec(i) - yTrue.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// BackwardInPlace computes dL/dy_pred = (2/n) * (y_pred - y_true).
func (MSE) BackwardInPlace(yPred, yTrue mat.Vector, grad *mat.VecDense) error {
	n, err := checkLengths(yPred, yTrue, grad)
	if err != nil {
		return err
	}

	grad.SubVec(yPred, yTrue)
	grad.ScaleVec(2/float64(n), grad)
	return nil
}

// L1Loss (Mean Absolute Error) loss.
type L1Loss struct{}

// Forward computes (1/n) * sum(|y_pred - y_true|).
func (L1Loss) Forward(yPred, yTrue mat.Vector) (float64, error) {
	n, err := checkLengths(yPred, yTrue, nil)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yPred.AtVec(i) - yTrue.AtVec(i))
	}
	return sum / float64(n), nil
}

// BackwardInPlace computes dL/dy_pred = sign(y_pred - y_true) / n, with a
// zero subgradient where prediction equals target.
func (L1Loss) BackwardInPlace(yPred, yTrue mat.Vector, grad *mat.VecDense) error {
	n, err := checkLengths(yPred, yTrue, grad)
	if err != nil {
		return err
	}

	inv := 1 / float64(n)
	for i := 0; i < n; i++ {
		diff := yPred.AtVec(i) - yTrue.AtVec(i)
		switch {
		case diff > 0:
			grad.SetVec(i, inv)
		case diff < 0:
			grad.SetVec(i, -inv)
		default:
			grad.SetVec(i, 0)
		}
	}
	return nil
}

// Objective adapts a Loss to layers that ascend their gradients: the
// gradient it produces is the negated loss gradient, so an ascent step
// decreases the loss.
type Objective struct {
	Loss Loss
}

// Gradient writes -dL/dy_pred into grad.
func (o Objective) Gradient(yPred, yTrue mat.Vector, grad *mat.VecDense) error {
	if err := o.Loss.BackwardInPlace(yPred, yTrue, grad); err != nil {
		return err
	}
	grad.ScaleVec(-1, grad)
	return nil
}

func checkLengths(yPred, yTrue mat.Vector, grad *mat.VecDense) (int, error) {
	n := yPred.Len()
	if n == 0 {
		return 0, fmt.Errorf("%w: empty prediction", ErrLengthMismatch)
	}
	if yTrue.Len() != n {
		return 0, fmt.Errorf("%w: prediction has %d values, target has %d", ErrLengthMismatch, n, yTrue.Len())
	}
	if grad != nil && grad.Len() != n {
		return 0, fmt.Errorf("%w: prediction has %d values, gradient has %d", ErrLengthMismatch, n, grad.Len())
	}
	return n, nil
}
