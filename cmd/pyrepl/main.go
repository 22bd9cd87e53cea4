// Command pyrepl is the REPL worker process. It speaks Content-Length
// framed JSON-RPC on stdin/stdout and serves until the input stream closes,
// then exits 0. It takes no flags; PYREPL_CONFIG may point at a YAML config
// file.
package main

import (
	"context"
	"fmt"
	"os"

	"pyrepl/codec"
	"pyrepl/config"
	"pyrepl/logger"
	"pyrepl/middleware"
	"pyrepl/server"
	"pyrepl/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("PYREPL_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "pyrepl:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pyrepl:", err)
		os.Exit(1)
	}

	// The session lives exactly as long as the process. One session, one
	// serve loop, no reset.
	sess := session.New()

	srv := server.New(sess, codec.GetCodec(codec.ByName(cfg.Codec)), log)
	srv.Permissive = cfg.Policies.PermissiveMethods
	srv.LenientHeaders = cfg.Policies.LenientHeaders
	srv.Use(middleware.LoggingMiddleware(log))
	if cfg.Throttle.RPS > 0 {
		srv.Use(middleware.ThrottleMiddleware(cfg.Throttle.RPS, cfg.Throttle.Burst))
	}

	log.Info().Str("codec", cfg.Codec).Msg("serving on stdin/stdout")
	if err := srv.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("serve loop failed")
		os.Exit(1)
	}
}
