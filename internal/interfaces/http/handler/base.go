package handler

import (
	"net/http"
	"strconv"

	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// callerID returns the caller identity recorded on audit entries.
func callerID(c *gin.Context) string {
	return middleware.CallerID(c)
}

// callerNumericID returns the caller as a numeric user ID, or 0 when the
// identity is not numeric.
func callerNumericID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(middleware.CallerID(c), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind* call: 413 for bodies cut off by
// the size limit, 400 with field details otherwise.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts err to an error envelope. Errors without a domain
// code are logged and reported as internal errors.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError for operations that return a result
// alongside the error, such as a settled payment whose claim update failed.
func (h *BaseHandler) HandleErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}
	code, message, status := dto.FromError(err)
	c.Set(logger.ErrorCodeKey, code)
	if status >= http.StatusInternalServerError {
		// otelgin fails the request span for anything in c.Errors
		_ = c.Error(err)
		if code == dto.ErrCodeInternal {
			logger.L(c.Request.Context()).Error("Request failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
		}
	}

	resp := dto.NewErrorResponse(code, message, middleware.GetRequestID(c))
	resp.Data = data
	c.JSON(status, resp)
}

// pathID parses a positive int64 path parameter. It writes a 400 response
// and returns false when the parameter is invalid.
func (h *BaseHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
