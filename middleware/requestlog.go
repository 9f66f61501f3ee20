package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// ServiceTag marks every request log record emitted by the gateway.
const ServiceTag = "argo-backend"

// RequestLogger emits one structured log record per HTTP request: method,
// path, response status, bytes written, duration and remote address.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			logrus.WithFields(logrus.Fields{
				"service":  ServiceTag,
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("request completed")
		}()

		next.ServeHTTP(ww, r)
	})
}
