package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements the service metrics using Prometheus
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	forecastsTotal      *prometheus.CounterVec
	forecastDuration    prometheus.Histogram
	forecastInputLength prometheus.Histogram
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	return &Collector{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyzer_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_forecasts_total",
				Help: "Total number of ARIMA forecasts by outcome",
			},
			[]string{"status"},
		),
		forecastDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyzer_forecast_duration_seconds",
				Help:    "ARIMA fit and forecast duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		),
		forecastInputLength: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyzer_forecast_input_length",
				Help:    "Number of observations supplied to the forecast endpoint",
				Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
			},
		),
	}
}

// RecordRequest records a completed HTTP request
func (c *Collector) RecordRequest(endpoint string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordForecast records the outcome of one forecast computation
func (c *Collector) RecordForecast(status string, inputLength int, duration time.Duration) {
	c.forecastsTotal.WithLabelValues(status).Inc()
	c.forecastDuration.Observe(duration.Seconds())
	c.forecastInputLength.Observe(float64(inputLength))
}
