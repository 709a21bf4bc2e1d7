package interceptor

import (
	"log/slog"
	"time"
)

// Logging logs every call with its duration. Failed calls are logged at
// error level, successful ones at debug level.
func Logging(logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(method string, next Handler) Handler {
		return func(args []interface{}) []interface{} {
			ctx := ContextOf(args)
			start := time.Now()

			rets := next(args)

			duration := time.Since(start)
			if err := ErrorOf(rets); err != nil {
				logger.ErrorContext(ctx, "method call failed",
					"method", method,
					"duration", duration,
					"error", err,
				)
			} else {
				logger.DebugContext(ctx, "method call completed",
					"method", method,
					"duration", duration,
				)
			}

			return rets
		}
	}
}
