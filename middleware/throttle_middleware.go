package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"pyrepl/message"
)

// ThrottleMiddleware applies a token-bucket limit to request handling.
//
// Unlike a rejecting limiter, it waits for a token: the protocol has no
// error code for "try again later", and every accepted frame must still
// yield exactly one response in order. Throttling therefore slows the loop
// down without changing any observable response.
func ThrottleMiddleware(r float64, burst int) Middleware {
	// Wait reserves one token per request; a bucket with zero capacity
	// can never satisfy it and would reject every frame.
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if err := limiter.Wait(ctx); err != nil {
				return message.NewError(req.ID, message.CodeInternalError, err.Error())
			}
			return next(ctx, req)
		}
	}
}
