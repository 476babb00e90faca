package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"tripcost/database"
	"tripcost/services"

	"github.com/gin-gonic/gin"
)

type ReportRequest struct {
	EstimateID   string `json:"estimate_id" binding:"required"`
	TravelerName string `json:"traveler_name"`
}

type ReportResponse struct {
	EstimateID string `json:"estimate_id"`
	PDFURL     string `json:"pdf_url"`
	Message    string `json:"message"`
}

// ReportHandler renders a stored estimate into a PDF cost report.
func ReportHandler(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !database.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimate store not configured"})
		return
	}

	record, err := database.GetEstimate(req.EstimateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Estimate not found"})
		return
	}

	var estimate services.CostEstimate
	if err := json.Unmarshal([]byte(record.ResultJSON), &estimate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse stored estimate"})
		return
	}

	pdfBytes, err := services.GenerateReportPDF(services.ReportData{
		TravelerName: req.TravelerName,
		Origin:       record.Origin,
		Destination:  record.Destination,
		Days:         record.Days,
		Travelers:    record.Travelers,
		Estimate:     estimate,
	})
	if err != nil {
		log.Printf("❌ PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	if err := database.UpdateEstimatePDF(record.ID, pdfBytes, req.TravelerName); err != nil {
		log.Printf("❌ Failed to save report PDF: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save generated PDF"})
		return
	}

	log.Printf("✅ Report generated for estimate %s (%d bytes)", record.ID, len(pdfBytes))

	c.JSON(http.StatusOK, ReportResponse{
		EstimateID: record.ID,
		PDFURL:     "/api/download/" + record.ID,
		Message:    "Report generated successfully",
	})
}

func DownloadHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing estimate ID"})
		return
	}

	if !database.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimate store not configured"})
		return
	}

	record, err := database.GetEstimate(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Estimate not found"})
		return
	}

	if len(record.PDFData) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report has not been generated for this estimate"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "attachment; filename=tripcost-estimate.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", record.PDFData)
}
