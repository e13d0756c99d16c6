package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erisantiagodev/dataflow-analyzer/internal/analysis"
	"github.com/erisantiagodev/dataflow-analyzer/internal/forecast"
)

const (
	serviceName    = "Data Flow Analyzer"
	serviceVersion = "1.0.0"
)

var endpointPaths = []string{"/", "/health", "/analyze", "/stats", "/forecast/arima"}

// Forecast defaults when the request omits them
var defaultOrder = forecast.Order{P: 1, D: 1, Q: 1}

const defaultSteps = 10

// DataItem is one record of the analyze request body
type DataItem struct {
	Name     string  `json:"name" binding:"required"`
	Value    float64 `json:"value"`
	Category string  `json:"category" binding:"required"`
}

// ForecastRequest is the forecast endpoint request body. Order and Steps
// are pointers so that omitted fields fall back to the defaults.
type ForecastRequest struct {
	Values []float64 `json:"values"`
	Order  *[3]int   `json:"order"`
	Steps  *int      `json:"steps"`
}

// ForecastResponse carries the point forecasts and echoes the order used
type ForecastResponse struct {
	Forecast   []float64 `json:"forecast"`
	ModelOrder [3]int    `json:"model_order"`
}

// ErrorResponse is the error body shape shared by all endpoints
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handleRoot returns service metadata
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome to " + serviceName + " API",
		"version":   serviceVersion,
		"endpoints": endpointPaths,
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// handleAnalyze computes per-category statistics over a list of records
func (s *Server) handleAnalyze(c *gin.Context) {
	var items []DataItem
	if err := c.ShouldBindJSON(&items); err != nil {
		s.logger.Error("invalid analyze request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request body: " + err.Error()})
		return
	}

	obs := make([]analysis.Observation, len(items))
	for i, item := range items {
		obs[i] = analysis.Observation{Category: item.Category, Value: item.Value}
	}

	results, err := analysis.DescribeGrouped(obs)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "At least one item is required."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": results,
	})
}

// handleStats computes descriptive statistics over a flat list of values
func (s *Server) handleStats(c *gin.Context) {
	var values []float64
	if err := c.ShouldBindJSON(&values); err != nil {
		s.logger.Error("invalid stats request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request body: " + err.Error()})
		return
	}

	stats, err := analysis.Describe(values)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "At least one value is required."})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleForecastARIMA fits an ARIMA model to the supplied series and
// returns point forecasts on the original scale
func (s *Server) handleForecastARIMA(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid forecast request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request body: " + err.Error()})
		return
	}

	order := defaultOrder
	if req.Order != nil {
		order = forecast.Order{P: req.Order[0], D: req.Order[1], Q: req.Order[2]}
	}
	steps := defaultSteps
	if req.Steps != nil {
		steps = *req.Steps
	}

	if detail, ok := s.checkForecastBounds(order, steps); !ok {
		s.metrics.RecordForecast("validation_error", len(req.Values), 0)
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: detail})
		return
	}

	start := time.Now()
	model, err := forecast.Fit(req.Values, order)
	if err != nil {
		s.rejectForecast(c, err, len(req.Values), start)
		return
	}

	values, err := model.Forecast(steps)
	if err != nil {
		s.rejectForecast(c, err, len(req.Values), start)
		return
	}

	s.metrics.RecordForecast("ok", len(req.Values), time.Since(start))
	s.logger.Debug("forecast complete",
		zap.Int("observations", len(req.Values)),
		zap.Int("steps", steps),
		zap.Float64("aic", model.AIC),
		zap.Float64("bic", model.BIC),
		zap.Float64("variance", model.Variance))

	c.JSON(http.StatusOK, ForecastResponse{
		Forecast:   values,
		ModelOrder: [3]int{order.P, order.D, order.Q},
	})
}

// checkForecastBounds enforces the configured request guard rails
func (s *Server) checkForecastBounds(order forecast.Order, steps int) (string, bool) {
	if steps < 1 {
		return "Steps must be a positive integer.", false
	}
	if s.maxSteps > 0 && steps > s.maxSteps {
		return "Steps must not exceed the configured maximum.", false
	}
	if s.maxOrder > 0 && (order.P > s.maxOrder || order.D > s.maxOrder || order.Q > s.maxOrder) {
		return "Order components must not exceed the configured maximum.", false
	}
	return "", true
}

// rejectForecast maps an engine error onto the response taxonomy:
// precondition failures are client errors, everything else is a model
// fitting failure.
func (s *Server) rejectForecast(c *gin.Context, err error, inputLength int, start time.Time) {
	var verr *forecast.ValidationError
	if errors.As(err, &verr) {
		s.metrics.RecordForecast("validation_error", inputLength, time.Since(start))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: verr.Error()})
		return
	}

	s.logger.Error("ARIMA model failed", zap.Int("observations", inputLength), zap.Error(err))
	s.metrics.RecordForecast("model_error", inputLength, time.Since(start))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Error in ARIMA model: " + err.Error()})
}
