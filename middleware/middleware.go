package middleware

import (
	"context"

	"pyrepl/message"
)

type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines multiple middlewares into one. Chain(A, B)(h) wraps h as
// A(B(h)), so A runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
