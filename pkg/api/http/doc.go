// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Descriptive statistics over flat and grouped input
//   - ARIMA point forecasting
//   - Health checks
//   - Prometheus metrics
package http
