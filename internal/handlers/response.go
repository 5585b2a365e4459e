package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
	"bmad-board/internal/services"
)

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidStructure), errors.Is(err, services.ErrYAML):
		return http.StatusUnprocessableEntity
	case repositories.IsNotExist(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		klog.Errorf("%s %s: %s", c.Request.Method, c.Request.URL.Path, message)
	} else {
		klog.V(2).Infof("%s %s: %d %s", c.Request.Method, c.Request.URL.Path, status, message)
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	respondError(c, statusFor(err), err.Error())
}
