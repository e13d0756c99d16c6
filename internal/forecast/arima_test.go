package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceSeries is a short upward-trending series used across tests.
var referenceSeries = []float64{10.5, 12.3, 15.7, 14.2, 16.8, 18.4, 17.9, 20.1, 22.5, 21.8, 23.4, 25.1}

func TestOrderValidate(t *testing.T) {
	require.NoError(t, Order{P: 1, D: 1, Q: 1}.Validate())
	require.NoError(t, Order{}.Validate())

	err := Order{P: -1, D: 0, Q: 0}.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFitTooFewValues(t *testing.T) {
	_, err := Fit([]float64{3.2, 1.9, 6.5, 2.9}, Order{P: 1, D: 1, Q: 1})
	require.ErrorIs(t, err, ErrTooFewValues)
}

func TestFitRejectsNonFinite(t *testing.T) {
	values := make([]float64, MinObservations)
	values[3] = math.NaN()

	_, err := Fit(values, Order{P: 1, D: 0, Q: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFitOrderTooLargeForSample(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	_, err := Fit(values, Order{P: 8, D: 0, Q: 8})
	require.Error(t, err)

	// Not a request problem: the floor was met but the order cannot be
	// estimated, so this maps to a model error.
	var verr *ValidationError
	require.False(t, errors.As(err, &verr))
}

func TestRandomWalkWithDriftForecast(t *testing.T) {
	// Perfectly linear series: first differences are constant, so an
	// ARIMA(0,1,0) forecast continues the line exactly.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}

	model, err := Fit(values, Order{P: 0, D: 1, Q: 0})
	require.NoError(t, err)

	forecasts, err := model.Forecast(3)
	require.NoError(t, err)
	require.Len(t, forecasts, 3)

	assert.InDelta(t, 21.0, forecasts[0], 1e-9)
	assert.InDelta(t, 22.0, forecasts[1], 1e-9)
	assert.InDelta(t, 23.0, forecasts[2], 1e-9)
}

func TestFitAR1(t *testing.T) {
	// Deterministic AR(1)-like data, same construction as the usual
	// textbook exercise: periodic innovations, no randomness.
	n := 200
	phi := 0.7
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}

	model, err := Fit(values, Order{P: 1, D: 0, Q: 0})
	require.NoError(t, err)
	require.Len(t, model.AR, 1)

	assert.Greater(t, model.AR[0], 0.2)
	assert.Less(t, model.AR[0], 0.99)
	assert.Len(t, model.Residuals(), n)

	forecasts, err := model.Forecast(5)
	require.NoError(t, err)
	require.Len(t, forecasts, 5)
	for _, v := range forecasts {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestForecastLengthMatchesSteps(t *testing.T) {
	model, err := Fit(referenceSeries, Order{P: 1, D: 1, Q: 1})
	require.NoError(t, err)

	for _, steps := range []int{1, 5, 10, 25} {
		forecasts, err := model.Forecast(steps)
		require.NoError(t, err)
		assert.Len(t, forecasts, steps)
	}
}

func TestForecastRejectsNonPositiveSteps(t *testing.T) {
	model, err := Fit(referenceSeries, Order{P: 1, D: 1, Q: 1})
	require.NoError(t, err)

	_, err = model.Forecast(0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = model.Forecast(-3)
	require.ErrorAs(t, err, &verr)
}

func TestForecastDeterminism(t *testing.T) {
	first, err := Fit(referenceSeries, Order{P: 2, D: 1, Q: 3})
	require.NoError(t, err)
	second, err := Fit(referenceSeries, Order{P: 2, D: 1, Q: 3})
	require.NoError(t, err)

	f1, err := first.Forecast(5)
	require.NoError(t, err)
	f2, err := second.Forecast(5)
	require.NoError(t, err)

	require.Equal(t, f1, f2)
}

func TestForecastReferenceSeries(t *testing.T) {
	model, err := Fit(referenceSeries, Order{P: 2, D: 1, Q: 3})
	require.NoError(t, err)

	forecasts, err := model.Forecast(5)
	require.NoError(t, err)
	require.Len(t, forecasts, 5)

	// The series trends upward by roughly 1.3 per step; forecasts must
	// stay on the original scale in a sane band around the extrapolation.
	for _, v := range forecasts {
		assert.Greater(t, v, 15.0)
		assert.Less(t, v, 45.0)
	}
}
