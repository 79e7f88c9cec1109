package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Employee is a directory record as the HR upstream exposes it.
type Employee struct {
	EmpNo   string          `json:"emp_no"`
	Name    string          `json:"name"`
	BasePay decimal.Decimal `json:"base_pay"`
	TradeID int64           `json:"trade_id"`
}

// Trade is a craft/skill classification.
type Trade struct {
	ID        int64  `json:"id"`
	TradeName string `json:"trade_name"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	DirectoryID string    `json:"directory_id"`
	Timestamp   time.Time `json:"timestamp"`
	Employees   int       `json:"employees"`
}

// MockDirectory simulates the upstream HR employee directory. It serves
// a fixed roster with configurable latency and availability so the
// ledger can be exercised against a flaky upstream.
type MockDirectory struct {
	availability float64
	minDelay     time.Duration
	maxDelay     time.Duration
	directoryID  string
	rng          *rand.Rand
	employees    []Employee
	trades       []Trade
}

// NewMockDirectory creates a new mock directory instance
func NewMockDirectory(availability float64, minDelay, maxDelay time.Duration) *MockDirectory {
	trades := []Trade{
		{ID: 1, TradeName: "Welder"},
		{ID: 2, TradeName: "Fitter"},
		{ID: 3, TradeName: "Electrician"},
		{ID: 4, TradeName: "Rigger"},
		{ID: 5, TradeName: "Painter"},
	}

	employees := []Employee{
		{EmpNo: "E001", Name: "Aung Kyaw", BasePay: decimal.NewFromInt(1800), TradeID: 1},
		{EmpNo: "E002", Name: "Min Thu", BasePay: decimal.NewFromInt(1650), TradeID: 2},
		{EmpNo: "E003", Name: "Zaw Lin", BasePay: decimal.NewFromInt(2100), TradeID: 3},
		{EmpNo: "E004", Name: "Kyaw Soe", BasePay: decimal.NewFromInt(1500), TradeID: 4},
		{EmpNo: "E005", Name: "Htun Naing", BasePay: decimal.NewFromInt(1750), TradeID: 1},
		{EmpNo: "E006", Name: "Thiha Win", BasePay: decimal.NewFromInt(1900), TradeID: 5},
	}

	return &MockDirectory{
		availability: availability,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		directoryID:  "MOCK_DIRECTORY_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		employees:    employees,
		trades:       trades,
	}
}

func (m *MockDirectory) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockDirectory) available() bool {
	return m.rng.Float64() < m.availability
}

// Handler struct holds the mock directory and routes
type Handler struct {
	directory *MockDirectory
}

func NewHandler(directory *MockDirectory) *Handler {
	return &Handler{directory: directory}
}

// ListEmployees serves the whole roster
func (h *Handler) ListEmployees(c *gin.Context) {
	if !h.directory.available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Directory temporarily unavailable",
		})
		return
	}

	// Simulate upstream latency
	time.Sleep(h.directory.randomDelay())

	c.JSON(http.StatusOK, gin.H{
		"items": h.directory.employees,
		"total": len(h.directory.employees),
	})
}

// GetEmployee serves a single directory record
func (h *Handler) GetEmployee(c *gin.Context) {
	empNo := c.Param("emp_no")

	if empNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "emp_no is required",
		})
		return
	}

	if !h.directory.available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Directory temporarily unavailable",
		})
		return
	}

	time.Sleep(h.directory.randomDelay())

	for _, emp := range h.directory.employees {
		if emp.EmpNo == empNo {
			c.JSON(http.StatusOK, emp)
			return
		}
	}

	log.Warn().
		Str("emp_no", empNo).
		Msg("Employee lookup missed")

	c.JSON(http.StatusNotFound, gin.H{
		"error": "employee not found",
	})
}

// ListTrades serves the trade classifications
func (h *Handler) ListTrades(c *gin.Context) {
	if !h.directory.available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Directory temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": h.directory.trades,
		"total": len(h.directory.trades),
	})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	if !h.directory.available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Directory temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		DirectoryID: h.directory.directoryID,
		Timestamp:   time.Now(),
		Employees:   len(h.directory.employees),
	})
}

// UpdateConfig allows changing directory configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		Availability *float64 `json:"availability"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.Availability != nil {
		if *config.Availability >= 0 && *config.Availability <= 1.0 {
			h.directory.availability = *config.Availability
			log.Info().Float64("availability", *config.Availability).Msg("Updated availability")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Configuration updated",
		"availability": h.directory.availability,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/employees", handler.ListEmployees)
		v1.GET("/employees/:emp_no", handler.GetEmployee)
		v1.GET("/trades", handler.ListTrades)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8082")
	availability := getEnvFloat("AVAILABILITY", 1)
	minDelay := getEnvDuration("MIN_DELAY", 10*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 200*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("availability", availability).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Employee Directory")

	// Create mock directory
	directory := NewMockDirectory(availability, minDelay, maxDelay)
	handler := NewHandler(directory)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
