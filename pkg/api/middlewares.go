package api

import (
	"net"
	"net/http"
	"time"

	"github.com/Narasimha1997/ratelimiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
)

type httpMiddleware func(http.Handler) http.Handler

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func Logging(logger *zap.Logger) httpMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.With(
				zap.String("operation", r.Method),
				zap.String("path", r.URL.Path),
			)
			logger.Info("Handling request")
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("Fail", zap.Int("status", rec.status))
			case rec.status >= http.StatusBadRequest:
				logger.Info("Fail", zap.Int("status", rec.status))
			default:
				logger.Info("Success")
			}
		})
	}
}

var httpResponseTimeMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "",
	Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 10},
}, []string{"operation"})

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := prometheus.NewTimer(httpResponseTimeMetric.WithLabelValues(r.URL.Path))
		defer t.ObserveDuration()
		next.ServeHTTP(w, r)
	})
}

// RateLimit allows each client IP at most limit requests per second. Zero disables limiting.
func RateLimit(limit uint64) httpMiddleware {
	limiters := xsync.NewMapOf[*ratelimiter.DefaultLimiter]()
	return func(next http.Handler) http.Handler {
		if limit == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, _ := limiters.LoadOrCompute(clientIP(r), func() *ratelimiter.DefaultLimiter {
				return ratelimiter.NewDefaultLimiter(limit, time.Second)
			})
			allowed, err := limiter.ShouldAllow(1)
			if err != nil || !allowed {
				writeError(w, http.StatusTooManyRequests, errorJSON{Error: "rate limit", Kind: "RateLimit"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
