package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/validation"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// respondError maps a service error to its status code. Unexpected errors
// are logged and reported without detail.
func (s *Server) respondError(c *gin.Context, err error) {
	if verr, ok := validation.As(err); ok {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "token expired"})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, common.ErrorStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "object storage disabled"})
	default:
		requestLogger(c).Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}
