package handlers

import (
	"net/http"
	"tripcost/database"
	"tripcost/services"

	"github.com/gin-gonic/gin"
)

func HealthHandler(c *gin.Context) {
	dbStatus := "disabled"
	if database.Available() {
		dbStatus = "ok"
		if err := database.DB.Ping(); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	coordinates, costProfiles := 0, 0
	if ds := services.GetDatasets(); ds != nil {
		coordinates = ds.CoordinateCount()
		costProfiles = ds.CostProfileCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"service":       "TripCost API",
		"database":      dbStatus,
		"coordinates":   coordinates,
		"cost_profiles": costProfiles,
	})
}
