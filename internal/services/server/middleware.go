package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	logRequest          = "request"
	logFieldMethod      = "method"
	logFieldRequestPath = "path"
	logFieldStatus      = "status"
	logFieldDuration    = "duration"
	logFieldRequestID   = "request_id"
)

// RequestLogger logs one line per request at debug level.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			start := time.Now()
			wrappedWriter := middleware.NewWrapResponseWriter(responseWriter, request.ProtoMajor)
			next.ServeHTTP(wrappedWriter, request)
			status := wrappedWriter.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debug(logRequest,
				zap.String(logFieldMethod, request.Method),
				zap.String(logFieldRequestPath, request.URL.Path),
				zap.Int(logFieldStatus, status),
				zap.Duration(logFieldDuration, time.Since(start)),
				zap.String(logFieldRequestID, middleware.GetReqID(request.Context())),
			)
		})
	}
}
