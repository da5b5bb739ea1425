package loss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestMSEForward(t *testing.T) {
	tests := []struct {
		name     string
		yPred    *mat.VecDense
		yTrue    *mat.VecDense
		expected float64
	}{
		{"Perfect prediction", vec(1, 2, 3), vec(1, 2, 3), 0},
		{"Single error", vec(1, 2), vec(1.5, 2), 0.125},
		{"Multiple errors", vec(1, 2, 3), vec(0, 1, 2), 1},
		{"Large errors", vec(10), vec(0), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE{}.Forward(tt.yPred, tt.yTrue)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestMSEBackwardInPlace(t *testing.T) {
	grad := mat.NewVecDense(2, nil)
	require.NoError(t, MSE{}.BackwardInPlace(vec(3, 1), vec(1, 1), grad))

	// 2/n * (pred - true)
	assert.True(t, mat.Equal(vec(2, 0), grad))
}

func TestL1Loss(t *testing.T) {
	got, err := L1Loss{}.Forward(vec(1, -2, 3, 0), vec(0, 0, 3, 1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	grad := mat.NewVecDense(4, nil)
	require.NoError(t, L1Loss{}.BackwardInPlace(vec(1, -2, 3, 0), vec(0, 0, 3, 1), grad))
	assert.True(t, mat.Equal(vec(0.25, -0.25, 0, -0.25), grad))
}

func TestLengthMismatch(t *testing.T) {
	for _, l := range []Loss{MSE{}, L1Loss{}} {
		_, err := l.Forward(vec(1, 2), vec(1))
		assert.ErrorIs(t, err, ErrLengthMismatch)

		_, err = l.Forward(&mat.VecDense{}, &mat.VecDense{})
		assert.ErrorIs(t, err, ErrLengthMismatch)

		grad := mat.NewVecDense(3, nil)
		err = l.BackwardInPlace(vec(1, 2), vec(1, 2), grad)
		assert.ErrorIs(t, err, ErrLengthMismatch)
		assert.Zero(t, mat.Sum(grad), "gradient must be untouched on error")
	}
}

func TestObjectiveNegatesGradient(t *testing.T) {
	yPred, yTrue := vec(0.5, 2, -1), vec(1, 1, 1)

	want := mat.NewVecDense(3, nil)
	require.NoError(t, MSE{}.BackwardInPlace(yPred, yTrue, want))

	got := mat.NewVecDense(3, nil)
	require.NoError(t, Objective{Loss: MSE{}}.Gradient(yPred, yTrue, got))

	want.ScaleVec(-1, want)
	assert.True(t, mat.Equal(want, got))
}

// TestObjectiveAscentDecreasesLoss checks that adding the objective gradient
// to the prediction moves it toward the target.
func TestObjectiveAscentDecreasesLoss(t *testing.T) {
	yPred, yTrue := vec(3, -1, 0.5), vec(1, 1, 1)
	before, err := MSE{}.Forward(yPred, yTrue)
	require.NoError(t, err)

	grad := mat.NewVecDense(3, nil)
	require.NoError(t, Objective{Loss: MSE{}}.Gradient(yPred, yTrue, grad))
	yPred.AddScaledVec(yPred, 0.1, grad)

	after, err := MSE{}.Forward(yPred, yTrue)
	require.NoError(t, err)
	assert.Less(t, after, before)
}
