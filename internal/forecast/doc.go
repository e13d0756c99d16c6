// Package forecast implements ARIMA(p,d,q) fitting and point forecasting
// for the forecast endpoint.
//
// The series is differenced d times, AR and MA coefficients are estimated
// by conditional sum of squares, and forecasts are integrated back to the
// original scale. Estimation uses a fixed iteration schedule with no
// randomness, so identical requests produce identical forecasts.
package forecast
