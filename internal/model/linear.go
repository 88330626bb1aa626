// Package model carries the built-in baseline regressor. Anything
// implementing the usecase Trainer/Predictor pair can replace it.
package model

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/draftkit/nba-drafter/internal/usecase"
)

const (
	defaultEpochs       = 400
	defaultLearningRate = 0.05
	defaultL2           = 1e-4
)

type LinearConfig struct {
	Epochs       int
	LearningRate float64
	// L2 shrinks weights toward zero so encoded one-hot columns with few
	// samples do not dominate the fit.
	L2 float64
}

func (c LinearConfig) normalized() LinearConfig {
	if c.Epochs <= 0 {
		c.Epochs = defaultEpochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = defaultLearningRate
	}
	if c.L2 <= 0 {
		c.L2 = defaultL2
	}
	return c
}

// Linear is a weighted least-squares regressor fit by batch gradient
// descent. The encoded feature ranges are already normalized, so plain
// gradient descent converges without per-column scaling.
type Linear struct {
	cfg LinearConfig

	mu      sync.RWMutex
	weights []float64
	bias    float64
}

var (
	_ usecase.Trainer   = (*Linear)(nil)
	_ usecase.Predictor = (*Linear)(nil)
)

func NewLinear(cfg LinearConfig) *Linear {
	return &Linear{cfg: cfg.normalized()}
}

func (m *Linear) Train(ctx context.Context, x [][]float64, y []float64, sampleWeights []float64) (usecase.TrainingMetrics, error) {
	if len(x) == 0 {
		return usecase.TrainingMetrics{}, fmt.Errorf("%w: training set is empty", usecase.ErrInvalidInput)
	}
	if len(y) != len(x) || len(sampleWeights) != len(x) {
		return usecase.TrainingMetrics{}, fmt.Errorf("%w: rows=%d targets=%d weights=%d", usecase.ErrInvalidInput, len(x), len(y), len(sampleWeights))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return usecase.TrainingMetrics{}, fmt.Errorf("%w: row %d has width %d, want %d", usecase.ErrInvalidInput, i, len(row), width)
		}
	}

	normWeights := normalizeWeights(sampleWeights)

	weights := make([]float64, width)
	grad := make([]float64, width)
	bias := 0.0

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return usecase.TrainingMetrics{}, err
		}

		for j := range grad {
			grad[j] = 0
		}
		biasGrad := 0.0

		for i, row := range x {
			residual := dot(weights, row) + bias - y[i]
			scaled := normWeights[i] * residual
			for j, v := range row {
				grad[j] += scaled * v
			}
			biasGrad += scaled
		}

		step := m.cfg.LearningRate
		for j := range weights {
			weights[j] -= step * (grad[j] + m.cfg.L2*weights[j])
		}
		bias -= step * biasGrad
	}

	var mse float64
	for i, row := range x {
		residual := dot(weights, row) + bias - y[i]
		mse += normWeights[i] * residual * residual
	}

	m.mu.Lock()
	m.weights = weights
	m.bias = bias
	m.mu.Unlock()

	return usecase.TrainingMetrics{MSE: mse, RMSE: math.Sqrt(mse)}, nil
}

func (m *Linear) Predict(_ context.Context, x [][]float64) ([]float64, error) {
	m.mu.RLock()
	weights, bias := m.weights, m.bias
	m.mu.RUnlock()

	if weights == nil {
		return nil, fmt.Errorf("%w: model is not trained", usecase.ErrInvalidConfiguration)
	}

	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(weights) {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", usecase.ErrInvalidConfiguration, i, len(row), len(weights))
		}
		out[i] = dot(weights, row) + bias
	}
	return out, nil
}

// normalizeWeights rescales sample weights to sum to 1 so the learning
// rate stays independent of corpus size.
func normalizeWeights(sampleWeights []float64) []float64 {
	total := 0.0
	for _, w := range sampleWeights {
		if w > 0 {
			total += w
		}
	}
	out := make([]float64, len(sampleWeights))
	if total <= 0 {
		uniform := 1.0 / float64(len(sampleWeights))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i, w := range sampleWeights {
		if w > 0 {
			out[i] = w / total
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}
