package handlers

import (
	"errors"
	"log"
	"net/http"
	"tripcost/database"
	"tripcost/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EstimateRequest struct {
	Origin        string `json:"origin" binding:"required"`
	Destination   string `json:"destination" binding:"required"`
	Days          int    `json:"days"`
	Travelers     int    `json:"travelers"`
	Mode          string `json:"mode"`          // train, bus, flight or auto
	Accommodation string `json:"accommodation"` // budget, comfort, luxury
	Meals         string `json:"meals"`         // budget, casual, fine_dining
	UseAI         bool   `json:"use_ai"`
	Context       string `json:"context"`
}

type EstimateResponse struct {
	EstimateID  string                `json:"estimate_id,omitempty"`
	Origin      string                `json:"origin"`
	Destination string                `json:"destination"`
	Days        int                   `json:"days"`
	Travelers   int                   `json:"travelers"`
	Estimate    services.CostEstimate `json:"estimate"`
}

func EstimateHandler(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if req.Days <= 0 {
		req.Days = 1
	}
	if req.Travelers <= 0 {
		req.Travelers = 1
	}

	estimator := services.GetEstimator()
	if estimator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimator not initialized"})
		return
	}

	estimate, err := estimator.Estimate(services.EstimateRequest{
		Origin:        req.Origin,
		Destination:   req.Destination,
		Days:          req.Days,
		Travelers:     req.Travelers,
		Mode:          req.Mode,
		Accommodation: services.ParseAccommodationTier(req.Accommodation),
		Meals:         services.ParseMealTier(req.Meals),
		UseAI:         req.UseAI,
		AIContext:     req.Context,
	})
	if err != nil {
		if errors.Is(err, services.ErrResolution) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Estimate failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to estimate trip cost"})
		return
	}

	resp := EstimateResponse{
		Origin:      req.Origin,
		Destination: req.Destination,
		Days:        req.Days,
		Travelers:   req.Travelers,
		Estimate:    *estimate,
	}

	// Persist for report generation when a store is configured; estimation
	// itself does not depend on it.
	if database.Available() {
		record := &database.Estimate{
			ID:          uuid.New().String(),
			Origin:      req.Origin,
			Destination: req.Destination,
			Days:        req.Days,
			Travelers:   req.Travelers,
		}
		if err := record.SetResult(estimate); err == nil {
			if err := database.SaveEstimate(record); err != nil {
				log.Printf("⚠️  Failed to save estimate: %v", err)
			} else {
				resp.EstimateID = record.ID
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
