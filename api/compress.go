package api

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"

	"iris-api/internal/config"
)

// compressWriter buffers the response so the encoding decision can be
// made once the handler has produced the full body.
type compressWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *compressWriter) WriteHeader(status int) {
	w.status = status
}

func (w *compressWriter) WriteHeaderNow() {}

func (w *compressWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *compressWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *compressWriter) Size() int {
	return w.body.Len()
}

func (w *compressWriter) Written() bool {
	return w.status != 0 || w.body.Len() > 0
}

// Flush is a no-op while the body is buffered.
func (w *compressWriter) Flush() {}

// CompressionMiddleware compresses response bodies when the client
// accepts it and the body is large enough to be worth the cycles.
// Brotli wins over gzip when both sides support it.
func CompressionMiddleware(cfg config.CompressionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.EnableGzip && !cfg.EnableBrotli {
			c.Next()
			return
		}
		encoding := selectEncoding(c.GetHeader("Accept-Encoding"), cfg)
		if encoding == "" {
			c.Next()
			return
		}

		writer := &compressWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()
		c.Writer = writer.ResponseWriter

		status := writer.Status()
		body := writer.body.Bytes()
		header := c.Writer.Header()
		if len(body) >= cfg.MinSize && header.Get("Content-Encoding") == "" {
			switch encoding {
			case "br":
				body = brotliCompress(body)
			case "gzip":
				body = gzipCompress(body)
			}
			header.Set("Content-Encoding", encoding)
			header.Add("Vary", "Accept-Encoding")
			header.Del("Content-Length")
		}
		c.Writer.WriteHeader(status)
		_, _ = c.Writer.Write(body)
	}
}

func selectEncoding(accept string, cfg config.CompressionConfig) string {
	accept = strings.ToLower(accept)
	if cfg.EnableBrotli && strings.Contains(accept, "br") {
		return "br"
	}
	if cfg.EnableGzip && strings.Contains(accept, "gzip") {
		return "gzip"
	}
	return ""
}

func brotliCompress(data []byte) []byte {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write(data)
	_ = bw.Close()
	return buf.Bytes()
}

func gzipCompress(data []byte) []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, _ = gw.Write(data)
	_ = gw.Close()
	return buf.Bytes()
}
