package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinObservations is the minimum series length accepted for fitting.
// It is a fixed floor, deliberately independent of the model order.
const MinObservations = 10

// ValidationError reports a precondition failure on the request itself,
// as opposed to a failure of the estimation. Callers map it to a client
// error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrTooFewValues is returned when the series is shorter than
// MinObservations. Its text is part of the API contract.
var ErrTooFewValues = &ValidationError{Reason: "At least 10 values are required for ARIMA."}

// Order is the ARIMA model order: P autoregressive lags, D differencing
// passes, Q moving-average lags.
type Order struct {
	P int
	D int
	Q int
}

// Validate checks that all order components are non-negative.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return &ValidationError{Reason: fmt.Sprintf("Order components must be non-negative, got (%d,%d,%d).", o.P, o.D, o.Q)}
	}
	return nil
}

// Model is a fitted ARIMA model.
type Model struct {
	Order     Order
	AR        []float64 // phi
	MA        []float64 // theta
	Intercept float64
	Variance  float64
	AIC       float64
	BIC       float64

	diffed    []float64 // series after D differencing passes
	tails     []float64 // last value of each intermediate series, for re-integration
	residuals []float64
}

// Fit estimates an ARIMA model of the given order on values, treated as an
// equally spaced series. Estimation is by conditional sum of squares with a
// fixed iteration schedule, so identical input always yields an identical
// model.
func Fit(values []float64, order Order) (*Model, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if len(values) < MinObservations {
		return nil, ErrTooFewValues
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Reason: fmt.Sprintf("Value at index %d is not finite.", i)}
		}
	}

	diffed := make([]float64, len(values))
	copy(diffed, values)

	tails := make([]float64, 0, order.D)
	for i := 0; i < order.D; i++ {
		tails = append(tails, diffed[len(diffed)-1])
		diffed = difference(diffed)
		if len(diffed) < 2 {
			return nil, fmt.Errorf("differencing order %d leaves only %d observations", order.D, len(diffed))
		}
	}

	if len(diffed) <= order.P+order.Q {
		return nil, fmt.Errorf("order (%d,%d,%d) requires more than %d observations after differencing",
			order.P, order.D, order.Q, len(diffed))
	}

	m := &Model{
		Order:  order,
		diffed: diffed,
		tails:  tails,
	}

	if err := m.estimate(); err != nil {
		return nil, err
	}
	m.informationCriteria()

	return m, nil
}

// Forecast produces exactly steps point forecasts beyond the end of the
// fitted series, on the original (undifferenced) scale.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, &ValidationError{Reason: "Steps must be a positive integer."}
	}

	y := m.diffed
	n := len(y)
	p, q := m.Order.P, m.Order.Q

	extended := make([]float64, n+steps)
	copy(extended, y)

	// Future innovations have zero expectation.
	innovations := make([]float64, n+steps)
	copy(innovations, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.AR[i] * (extended[t-i-1] - m.Intercept)
		}
		for i := 0; i < q && t-i-1 >= 0; i++ {
			pred += m.MA[i] * innovations[t-i-1]
		}
		extended[t] = pred
	}

	forecasts := m.integrate(extended[n:])
	for _, v := range forecasts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("forecast produced non-finite values")
		}
	}

	return forecasts, nil
}

// Residuals returns a copy of the in-sample residuals on the differenced
// scale.
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// estimate fits AR and MA coefficients by conditional sum of squares.
// AR terms start from a Yule-Walker solve, MA terms from a small constant,
// then both are refined by gradient steps until the SSE stabilizes.
func (m *Model) estimate() error {
	y := m.diffed
	n := len(y)
	p, q := m.Order.P, m.Order.Q

	m.Intercept = stat.Mean(y, nil)

	if p == 0 && q == 0 {
		// White noise around the mean.
		m.residuals = make([]float64, n)
		for i, v := range y {
			m.residuals[i] = v - m.Intercept
		}
		m.Variance = stat.Variance(y, nil)
		return nil
	}

	m.AR = make([]float64, p)
	m.MA = make([]float64, q)
	if p > 0 {
		if phi := yuleWalker(autocorrelation(y, p), p); phi != nil {
			copy(m.AR, phi)
		}
	}
	for i := range m.MA {
		m.MA[i] = 0.1
	}

	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)

	start := max(p, q)
	residuals := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		previousSSE := m.conditionalSSE(residuals)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.AR[i] = clampCoeff(m.AR[i] - learningRate*arGrad[i]/float64(n))
		}
		for i := 0; i < q; i++ {
			m.MA[i] = clampCoeff(m.MA[i] - learningRate*maGrad[i]/float64(n))
		}

		if math.Abs(previousSSE-m.conditionalSSE(residuals)) < tolerance {
			break
		}
	}

	// Final one-step-ahead pass over the whole sample.
	m.residuals = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < start {
			m.residuals[t] = y[t] - m.Intercept
			continue
		}
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.AR[i] * (y[t-i-1] - m.Intercept)
		}
		for i := 0; i < q && t-i-1 >= 0; i++ {
			pred += m.MA[i] * m.residuals[t-i-1]
		}
		m.residuals[t] = y[t] - pred
	}

	sse := 0.0
	count := 0
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > p+q+1 {
		m.Variance = sse / float64(count-p-q-1)
	} else {
		m.Variance = sse / float64(count)
	}

	for _, c := range append(append([]float64{m.Intercept, m.Variance}, m.AR...), m.MA...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("estimation diverged for order (%d,%d,%d)", p, m.Order.D, q)
		}
	}

	return nil
}

// conditionalSSE fills residuals with the one-step-ahead errors for the
// current coefficients and returns their sum of squares over the
// conditioning window.
func (m *Model) conditionalSSE(residuals []float64) float64 {
	y := m.diffed
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	for i := 0; i < start; i++ {
		residuals[i] = 0
	}

	sse := 0.0
	for t := start; t < n; t++ {
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.AR[i] * (y[t-i-1] - m.Intercept)
		}
		for i := 0; i < q && t-i-1 >= 0; i++ {
			pred += m.MA[i] * residuals[t-i-1]
		}
		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return sse
}

// integrate undoes the differencing passes, innermost first, using the
// recorded tail of each intermediate series.
func (m *Model) integrate(forecasts []float64) []float64 {
	out := make([]float64, len(forecasts))
	copy(out, forecasts)

	for i := len(m.tails) - 1; i >= 0; i-- {
		running := m.tails[i]
		for j := range out {
			running += out[j]
			out[j] = running
		}
	}
	return out
}

// informationCriteria computes AIC and BIC from the Gaussian log-likelihood
// of the residuals. Reported in debug logs only.
func (m *Model) informationCriteria() {
	n := float64(len(m.residuals))
	k := float64(m.Order.P + m.Order.Q + 1)

	if m.Variance <= 0 {
		m.AIC = math.Inf(-1)
		m.BIC = math.Inf(-1)
		return
	}

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}
	logLik := -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.Variance) - sse/(2*m.Variance)

	m.AIC = -2*logLik + 2*k
	m.BIC = -2*logLik + k*math.Log(n)
}

// difference returns the first differences of values.
func difference(values []float64) []float64 {
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] - values[i]
	}
	return out
}

// autocorrelation returns the sample autocorrelations of y for lags
// 0..maxLag, or nil for a degenerate series.
func autocorrelation(y []float64, maxLag int) []float64 {
	n := len(y)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(y, nil)
	variance := 0.0
	for _, v := range y {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (y[i] - mean) * (y[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}

// yuleWalker solves the Yule-Walker equations R*phi = r for initial AR
// coefficients. The Toeplitz system is solved through a Cholesky
// factorization; nil is returned when the system is not positive definite,
// in which case the caller keeps a zero start.
func yuleWalker(acf []float64, p int) []float64 {
	if p <= 0 || len(acf) <= p {
		return nil
	}

	r := mat.NewVecDense(p, nil)
	toeplitz := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		r.SetVec(i, acf[i+1])
		for j := i; j < p; j++ {
			toeplitz.SetSym(i, j, acf[j-i])
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(toeplitz) {
		return nil
	}
	var solution mat.VecDense
	if err := chol.SolveVecTo(&solution, r); err != nil {
		return nil
	}

	phi := make([]float64, p)
	for i := range phi {
		phi[i] = clampCoeff(solution.AtVec(i))
	}
	return phi
}

// clampCoeff bounds a coefficient away from the unit circle to keep the
// recursion stationary and invertible.
func clampCoeff(c float64) float64 {
	return math.Max(-0.99, math.Min(0.99, c))
}
