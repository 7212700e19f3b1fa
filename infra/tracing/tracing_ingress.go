package tracing

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// TracingIngress opens a server span per request, continuing the trace
// carried in the inbound headers when present.
func TracingIngress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tracer := opentracing.GlobalTracer()
		spanCtx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(ctx.Request.Header))

		// the route pattern keeps span names low-cardinality
		name := ctx.Request.Method + " " + ctx.FullPath()
		if ctx.FullPath() == "" {
			name = ctx.Request.Method + " unmatched"
		}
		serverSpan := tracer.StartSpan(name, ext.RPCServerOption(spanCtx))
		defer serverSpan.Finish()

		ext.HTTPMethod.Set(serverSpan, ctx.Request.Method)
		ext.HTTPUrl.Set(serverSpan, ctx.Request.RequestURI)

		ctx.Request = ctx.Request.WithContext(opentracing.ContextWithSpan(ctx.Request.Context(), serverSpan))

		ctx.Next()

		ext.HTTPStatusCode.Set(serverSpan, uint16(ctx.Writer.Status()))
		if ctx.Writer.Status() >= 500 {
			ext.Error.Set(serverSpan, true)
		}
	}
}
