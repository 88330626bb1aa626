package model

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/draftkit/nba-drafter/internal/usecase"
)

func TestLinearFitsSyntheticLine(t *testing.T) {
	t.Parallel()

	var x [][]float64
	var y, w []float64
	for i := 0; i < 40; i++ {
		a := float64(i%10) / 10
		b := float64(i%7) / 7
		x = append(x, []float64{a, b})
		y = append(y, 2*a+3*b+1)
		w = append(w, 1)
	}

	m := NewLinear(LinearConfig{Epochs: 4000, LearningRate: 0.3})
	metrics, err := m.Train(context.Background(), x, y, w)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if metrics.RMSE > 0.05 {
		t.Fatalf("model failed to fit a noiseless line: rmse=%f", metrics.RMSE)
	}
	if metrics.MSE > metrics.RMSE {
		t.Fatalf("mse must be the squared rmse: mse=%f rmse=%f", metrics.MSE, metrics.RMSE)
	}

	preds, err := m.Predict(context.Background(), [][]float64{{0.5, 0.5}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := 2*0.5 + 3*0.5 + 1
	if math.Abs(preds[0]-want) > 0.2 {
		t.Fatalf("unexpected prediction: got=%f want=%f", preds[0], want)
	}
}

func TestLinearSampleWeightsBiasFit(t *testing.T) {
	t.Parallel()

	// Two contradictory clusters; the heavily weighted one must win.
	x := [][]float64{{1}, {1}, {1}, {1}}
	y := []float64{10, 10, 0, 0}
	w := []float64{100, 100, 1, 1}

	m := NewLinear(LinearConfig{Epochs: 3000, LearningRate: 0.3})
	if _, err := m.Train(context.Background(), x, y, w); err != nil {
		t.Fatalf("train: %v", err)
	}

	preds, err := m.Predict(context.Background(), [][]float64{{1}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if preds[0] < 8 {
		t.Fatalf("weighted samples must dominate the fit: got=%f", preds[0])
	}
}

func TestLinearTrainValidation(t *testing.T) {
	t.Parallel()

	m := NewLinear(LinearConfig{})
	if _, err := m.Train(context.Background(), nil, nil, nil); !stderrors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("empty training set must be invalid input, got %v", err)
	}
	if _, err := m.Train(context.Background(), [][]float64{{1}}, []float64{1, 2}, []float64{1}); !stderrors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("mismatched lengths must be invalid input, got %v", err)
	}
	if _, err := m.Train(context.Background(), [][]float64{{1}, {1, 2}}, []float64{1, 2}, []float64{1, 1}); !stderrors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("ragged rows must be invalid input, got %v", err)
	}
}

func TestLinearPredictBeforeTraining(t *testing.T) {
	t.Parallel()

	m := NewLinear(LinearConfig{})
	if _, err := m.Predict(context.Background(), [][]float64{{1}}); !stderrors.Is(err, usecase.ErrInvalidConfiguration) {
		t.Fatalf("untrained predict must be a configuration error, got %v", err)
	}
}

func TestLinearPredictWidthMismatch(t *testing.T) {
	t.Parallel()

	m := NewLinear(LinearConfig{Epochs: 10})
	if _, err := m.Train(context.Background(), [][]float64{{1, 2}}, []float64{1}, []float64{1}); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := m.Predict(context.Background(), [][]float64{{1}}); !stderrors.Is(err, usecase.ErrInvalidConfiguration) {
		t.Fatalf("width mismatch must be a configuration error, got %v", err)
	}
}
