package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pyrepl/message"
)

// LoggingMiddleware logs one line per dispatched request: method, duration,
// and the error envelope if the handler produced one. The logger must write
// to stderr — stdout is the transport.
func LoggingMiddleware(log zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			ev := log.Debug().
				Str("method", req.Method).
				Dur("duration", time.Since(start))
			if resp.Error != nil {
				ev = ev.Int("code", resp.Error.Code).Str("error", resp.Error.Message)
			}
			ev.Msg("request handled")
			return resp
		}
	}
}
