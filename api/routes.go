package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the full HTTP surface: the flat routes, the
// versioned v1/v2 groups and the monitoring endpoints.
func RegisterRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/info", handlers.GetModelInfo)
	router.GET("/versions", handlers.GetVersions)
	router.POST("/predict", handlers.Predict)
	router.POST("/predict/array", handlers.PredictArray)
	router.POST("/predict/batch", handlers.PredictBatch)

	router.GET("/metrics", handlers.GetStatistics)
	router.GET("/metrics/requests", handlers.GetRecentRequests)
	router.GET("/metrics/errors", handlers.GetRecentErrors)
	router.GET("/metrics/alerts", handlers.GetAlerts)
	router.GET("/metrics/enrich", handlers.EnrichClient)

	router.POST("/models/retrain", RequireRole(roleDataScientist), handlers.Retrain)
	router.GET("/models/evaluate", RequireRole(roleDataScientist), handlers.EvaluateModel)
	router.GET("/admin", RequireRole(roleAdmin), handlers.Admin)

	v1 := router.Group("/v1")
	{
		v1.GET("/", handlers.Root)
		v1.GET("/info", handlers.V1Info)
		v1.POST("/predict", handlers.Predict)
	}

	v2 := router.Group("/v2")
	{
		v2.GET("/", handlers.Root)
		v2.GET("/info", handlers.V2Info)
		v2.POST("/predict", handlers.PredictV2)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"detail":      "Not Found",
			"status_code": http.StatusNotFound,
		})
	})
}
