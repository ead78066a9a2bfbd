package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusMapper turns a service error into an HTTP status and a message safe to show.
type StatusMapper func(err error) (status int, message string)

// Success writes the bare payload with 200.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, data)
}

// Created writes the bare payload with 201.
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, data)
}

// Error writes {"error": message} with the given status.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

// Fail answers with the status and message chosen by mapper. 5xx causes are logged, never shown.
func Fail(ctx *gin.Context, err error, mapper StatusMapper) {
	status, message := mapper(err)
	if status >= http.StatusInternalServerError && Logger != nil {
		Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString(RequestIDKey)),
			zap.Error(err))
	}
	Error(ctx, status, message)
}
