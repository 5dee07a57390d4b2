package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iris-api/internal/model"
)

// abortWithDetail writes the error envelope carried by every non-2xx
// response and stops the handler chain.
func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{
		"detail":      detail,
		"status_code": status,
	})
}

// modelErrorStatus maps model package errors to their HTTP status:
// unknown models and versions are 404, rejected input is 400, anything
// else is a 500.
func modelErrorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithModelError(c *gin.Context, err error) {
	abortWithDetail(c, modelErrorStatus(err), err.Error())
}

// abortWithPredictError is abortWithModelError for the predict
// handlers, where unexpected failures carry a prefix identifying the
// stage that broke.
func abortWithPredictError(c *gin.Context, err error) {
	status := modelErrorStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "Prediction failed: " + detail
	}
	abortWithDetail(c, status, detail)
}
