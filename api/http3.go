package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/quic-go/quic-go/http3"

	"iris-api/internal/config"
)

// StartHTTP3Server serves the same handler over HTTP/3. It blocks until
// the listener fails or ctx is cancelled.
func StartHTTP3Server(ctx context.Context, cfg config.H3Config, handler http.Handler) error {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("load h3 key pair: %w", err)
	}
	server := &http3.Server{
		Addr: cfg.Address,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"h3"},
		},
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("h3 server: %w", err)
	}
	return nil
}
