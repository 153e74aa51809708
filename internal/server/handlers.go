package server

import (
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/chrisdamba/opsboard/internal/predictor"
	"github.com/gin-gonic/gin"
)

const (
	defaultPaymentValue = 500.0
	defaultDeliveryDays = 5
)

// kpiResponse carries the four headline scalars. The delivery pair is nil
// when no order has a recorded delivery date, with Status flagging it so
// the front-end renders an explicit "no data" state.
type kpiResponse struct {
	TotalOrders     int      `json:"total_orders"`
	TotalRevenue    float64  `json:"total_revenue"`
	AvgDeliveryDays *float64 `json:"avg_delivery_days"`
	LatePercentage  *float64 `json:"late_percentage"`
	Status          string   `json:"status"`
}

type predictRequest struct {
	PaymentValue float64            `json:"payment_value"`
	DeliveryDays int                `json:"delivery_time_days"`
	Features     map[string]float64 `json:"features"`
}

type predictResponse struct {
	Prediction int    `json:"prediction"`
	Status     string `json:"status"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleKPIs(c *gin.Context) {
	snapshot := s.currentSnapshot()

	resp := kpiResponse{
		TotalOrders:  snapshot.TotalOrders,
		TotalRevenue: math.Round(snapshot.TotalRevenue),
		Status:       "ok",
	}
	if math.IsNaN(snapshot.AvgDeliveryDays) {
		resp.Status = "no data"
	} else {
		resp.AvgDeliveryDays = roundedPtr(snapshot.AvgDeliveryDays)
		resp.LatePercentage = roundedPtr(snapshot.LatePercentage)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMonthlyTrend(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentSnapshot().MonthlyTrend)
}

func (s *Server) handleRevenueByPaymentType(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentSnapshot().RevenueByPaymentType)
}

func (s *Server) handleSLABreakdown(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentSnapshot().SLABreakdown)
}

func (s *Server) handlePredict(c *gin.Context) {
	req := predictRequest{
		PaymentValue: defaultPaymentValue,
		DeliveryDays: defaultDeliveryDays,
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PaymentValue <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_value must be positive"})
		return
	}
	if req.DeliveryDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_time_days must be positive"})
		return
	}

	// The form fields ride along under their own names; the model only
	// reads columns its feature list names.
	input := map[string]float64{
		"payment_value":      req.PaymentValue,
		"delivery_time_days": float64(req.DeliveryDays),
	}
	for name, value := range req.Features {
		input[name] = value
	}

	prediction, err := s.predictor.Predict(input)
	if err != nil {
		if errors.Is(err, predictor.ErrMissingFeature) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.publisher.PredictionMade(input, prediction); err != nil {
		log.Printf("Failed to publish prediction event: %v", err)
	}

	c.JSON(http.StatusOK, predictResponse{
		Prediction: prediction,
		Status:     predictor.StatusLabel(prediction),
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func roundedPtr(v float64) *float64 {
	rounded := math.Round(v*10) / 10
	return &rounded
}
