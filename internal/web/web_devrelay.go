package web

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const proxyRouteLabel = "proxy"

// devRelay hands requests under the proxy prefix to the dev proxy before the
// gin engine sees them. The response reaches the client exactly as the
// backend sent it: no middleware headers, no NoRoute fallback.
func (s *WebServer) devRelay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Proxy == nil || !s.Proxy.Matches(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		s.Proxy.ServeHTTP(sw, r)

		status := sw.code()
		latency := time.Since(start)
		s.Metrics.observe(r.Method, proxyRouteLabel, status, latency)
		logRequest(s.logger, status, []zap.Field{
			zap.String("request_id", r.Header.Get(requestIDHeader)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("route", proxyRouteLabel),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", remoteIP(r)),
		})
	})
}

// statusWriter records the final status of a relayed response.
// It exposes the wrapped writer through Unwrap so flushing still works.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 && code >= 200 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
