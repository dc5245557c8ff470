package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/tracing"
)

// WithLoggingTracing saves the trace ID and operation name to the request
// context so the logger can attach them to every log line.
func WithLoggingTracing(config tracing.Config) gin.HandlerFunc {
	traceHeader := config.TraceHeader
	if traceHeader == "" {
		traceHeader = "NX-Trace-Id"
	}

	return func(c *gin.Context) {
		// Honor a trace id supplied by the caller.
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = tracing.GenerateTraceID()
		}

		c.Header(traceHeader, traceID)

		ctx := tracing.WithTraceID(c.Request.Context(), traceID)
		ctx = tracing.WithOperationName(ctx, fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
