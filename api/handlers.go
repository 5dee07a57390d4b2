package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"iris-api/internal/dataset"
	"iris-api/internal/metrics"
	"iris-api/internal/model"
	"iris-api/internal/monitor"
	"iris-api/pkg/enrich"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	Model         *model.Service
	Monitor       *monitor.Monitor
	Alerts        *monitor.AlertStore
	Metrics       *metrics.Metrics
	Enrich        *enrich.Service
	EnrichTimeout time.Duration
	Log           *zap.Logger
}

// Root is the welcome document shared by every API version.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome to the ML Model API",
		"docs_url":  "/docs",
		"redoc_url": "/redoc",
	})
}

// Health reports whether the model can serve predictions. An unhealthy
// API answers 500 with the failure inside the detail document.
func (h *Handlers) Health(c *gin.Context) {
	info, err := h.Model.Info()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"detail":      gin.H{"status": "unhealthy", "error": err.Error()},
			"status_code": http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"model":      info.ModelName,
		"version":    info.Version,
		"model_type": info.ModelType,
	})
}

// GetModelInfo describes the loaded model, or the version named by the
// version query parameter.
func (h *Handlers) GetModelInfo(c *gin.Context) {
	info, err := h.Model.InfoFor(c.Query("version"))
	if err != nil {
		abortWithModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetVersions lists the saved model versions.
func (h *Handlers) GetVersions(c *gin.Context) {
	versions, err := h.Model.Versions()
	if err != nil {
		abortWithModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// Predict classifies one observation given as named measurements.
func (h *Handlers) Predict(c *gin.Context) {
	var features IrisFeatures
	if err := c.ShouldBindJSON(&features); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := features.Validate(); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.predictRows(c, [][]float64{features.row()})
}

// PredictArray classifies one observation given as a bare feature
// array.
func (h *Handlers) PredictArray(c *gin.Context) {
	var features IrisFeaturesArray
	if err := c.ShouldBindJSON(&features); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := features.Validate(); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.predictRows(c, [][]float64{features.toFeatures().row()})
}

func (h *Handlers) predictRows(c *gin.Context, rows [][]float64) {
	result, err := h.Model.PredictVersion(c.Query("version"), rows)
	if err != nil {
		abortWithPredictError(c, err)
		return
	}
	h.countPredictions(result)
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) countPredictions(result *model.Prediction) {
	if h.Metrics == nil {
		return
	}
	for _, species := range result.Prediction {
		h.Metrics.IncPrediction(species)
	}
}

// PredictBatch classifies up to 100 observations in one model call and
// returns one result document per observation.
func (h *Handlers) PredictBatch(c *gin.Context) {
	var batch []IrisFeatures
	if err := c.ShouldBindJSON(&batch); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if len(batch) == 0 {
		abortWithDetail(c, http.StatusBadRequest, "Batch cannot be empty")
		return
	}
	if len(batch) > 100 {
		abortWithDetail(c, http.StatusBadRequest, "Batch size cannot exceed 100 samples")
		return
	}
	rows := make([][]float64, 0, len(batch))
	for i, features := range batch {
		if err := features.Validate(); err != nil {
			abortWithDetail(c, http.StatusUnprocessableEntity, fmt.Sprintf("sample %d: %v", i, err))
			return
		}
		rows = append(rows, features.row())
	}

	result, err := h.Model.PredictVersion(c.Query("version"), rows)
	if err != nil {
		abortWithPredictError(c, err)
		return
	}
	h.countPredictions(result)

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		item := gin.H{
			"prediction":       result.Prediction[i : i+1],
			"prediction_index": result.PredictionIndex[i : i+1],
		}
		if i < len(result.Probabilities) {
			item["probabilities"] = result.Probabilities[i : i+1]
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

// Retrain fits a fresh model on the bundled dataset, publishes it as a
// new version and reloads the service. Requires the data scientist
// role or better.
func (h *Handlers) Retrain(c *gin.Context) {
	modelName := c.Query("model_name")
	if modelName == "" {
		abortWithDetail(c, http.StatusUnprocessableEntity, "model_name query parameter is required")
		return
	}
	iris, err := dataset.LoadIris()
	if err != nil {
		abortWithDetail(c, http.StatusInternalServerError, "load training data: "+err.Error())
		return
	}
	version, accuracy, err := h.Model.Retrain(iris.Samples, iris.Labels, dataset.FeatureNames, dataset.TargetNames)
	if err != nil {
		abortWithDetail(c, http.StatusInternalServerError, "retrain: "+err.Error())
		return
	}
	role := c.GetString("role")
	if h.Log != nil {
		h.Log.Info("model retrained",
			zap.String("model", modelName),
			zap.String("version", version),
			zap.Float64("accuracy", accuracy),
			zap.String("role", role),
		)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Model %s retraining initiated by %s", modelName, role),
		"version":  version,
		"accuracy": accuracy,
	})
}

// Admin is the admin-only hello used to verify role wiring.
func (h *Handlers) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello admin!"})
}

// EvaluateModel greets the caller with its resolved role.
func (h *Handlers) EvaluateModel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Hello %s!", c.GetString("role"))})
}

// V1Info describes the v1 surface.
func (h *Handlers) V1Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     "1.0",
		"model":       "iris",
		"description": "Basic iris classification API",
	})
}

// V2Info describes the v2 surface.
func (h *Handlers) V2Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     "2.0",
		"model":       "iris",
		"description": "Enhanced iris classification API",
		"features":    []string{"Basic prediction", "Confidence scores", "Feature importance"},
	})
}

// PredictV2 is Predict plus the v2 response extensions: per-feature
// importance weights and the surface version marker.
func (h *Handlers) PredictV2(c *gin.Context) {
	var features IrisFeaturesV2
	if err := c.ShouldBindJSON(&features); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := features.Validate(); err != nil {
		abortWithDetail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.Model.PredictVersion(c.Query("version"), [][]float64{features.row()})
	if err != nil {
		abortWithPredictError(c, err)
		return
	}
	h.countPredictions(result)

	importance := gin.H{}
	for _, name := range dataset.FeatureNames {
		importance[name] = 0.25
	}
	c.JSON(http.StatusOK, gin.H{
		"prediction":         result.Prediction,
		"prediction_index":   result.PredictionIndex,
		"probabilities":      result.Probabilities,
		"feature_importance": importance,
		"model_version":      "v2",
	})
}
