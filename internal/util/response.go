package util

import (
	"career_path_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

var badRequestErrors = []error{
	ErrInvalidRequest,
	ErrOptionRequired,
	ErrAnswerOutOfOrder,
	ErrAnswerCountMismatch,
	ErrInvalidAnswer,
	ErrInvalidStep,
}

var notFoundErrors = []error{
	ErrSessionNotFound,
	ErrResultNotReady,
	ErrRoadmapNotFound,
	ErrAssessmentNotFound,
}

var conflictErrors = []error{
	ErrSessionInvalidated,
	ErrAssessmentInactive,
	ErrConcurrentUpdate,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// HandleError 将服务层错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error) {
	var locked *StepLockedError
	var genErr *GenerationError

	switch {
	case errors.As(err, &locked):
		ErrorWithData(c, http.StatusForbidden, err.Error(), gin.H{
			"locked":       true,
			"requiredStep": locked.RequiredStep,
		})
	case errors.Is(err, ErrPassRequired):
		Error(c, http.StatusForbidden, err.Error())
	case isAny(err, badRequestErrors):
		BadRequest(c, err.Error())
	case isAny(err, notFoundErrors):
		Error(c, http.StatusNotFound, err.Error())
	case isAny(err, conflictErrors):
		Error(c, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		logger.Log.Warn("Assessment generation failed", zap.Int("step", genErr.Step), zap.Error(err))
		ErrorWithData(c, http.StatusBadGateway, "failed to generate assessment, please try again later", gin.H{
			"retryable": genErr.Retryable,
		})
	case errors.Is(err, ErrGenerationFailed), errors.Is(err, ErrAIUnavailable), errors.Is(err, ErrAIRateLimited):
		ErrorWithData(c, http.StatusBadGateway, err.Error(), gin.H{"retryable": true})
	default:
		LogInternalError(c, err)
	}
}
