package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件，处理 c.Error 记录但尚未写响应的错误
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}
		status, message := classify(err)
		Error(c, status, message, err.Error())
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// HandleError 将服务层错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error, operation string) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		message = "failed to " + operation
	}
	Error(c, status, message, err.Error())
}

// classify 按错误类型决定状态码与提示
func classify(err error) (int, string) {
	switch {
	case utils.IsValidationError(err):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, service.ErrDuplicateEvaluation),
		errors.Is(err, parser.ErrNameColumnMissing):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrLogNotFound),
		errors.Is(err, service.ErrTraineeNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrBackupNotFound),
		errors.Is(err, service.ErrNoBackup):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrLogExists):
		return http.StatusConflict, "training log already exists"
	case errors.Is(err, statemachine.ErrNotActionable),
		errors.Is(err, statemachine.ErrInvalidTransition):
		return http.StatusConflict, "approval step is not actionable"
	}

	var sheetErr *sheet.Error
	if errors.As(err, &sheetErr) {
		switch sheetErr.Kind {
		case sheet.KindConfig:
			return http.StatusPreconditionFailed, "remote sheet is not configured"
		case sheet.KindPermission:
			return http.StatusBadGateway, "script returned a login page; redeploy the web app with access set to anyone"
		case sheet.KindUnsupported:
			return http.StatusBadGateway, "script does not support this action; update the deployed script"
		default:
			return http.StatusBadGateway, "remote sheet request failed"
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
