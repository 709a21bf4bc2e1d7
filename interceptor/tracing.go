package interceptor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/panagiotisptr/proxychain/interceptor"

// Tracing starts a span per call. When the first argument is a
// context.Context it is replaced with the span's context so the layers below
// see the span as their parent. A nil tracer uses the global provider.
func Tracing(tracer trace.Tracer) Interceptor {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return func(method string, next Handler) Handler {
		return func(args []interface{}) []interface{} {
			ctx, span := tracer.Start(
				ContextOf(args),
				method,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("proxy.method", method),
					attribute.Int("proxy.args", len(args)),
				),
			)
			defer span.End()

			if len(args) > 0 {
				if _, ok := args[0].(context.Context); ok {
					args = append([]interface{}{ctx}, args[1:]...)
				}
			}

			rets := next(args)
			if err := ErrorOf(rets); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			return rets
		}
	}
}
