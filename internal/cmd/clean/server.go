package clean

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/turbolytics/cleaner/internal/cleaner"
	"go.uber.org/zap"
)

func logMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("request",
					zap.String("from", r.RemoteAddr),
					zap.String("protocol", r.Proto),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func newRouter(c *cleaner.Cleaner, l *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(logMiddleware(l))
	c.RegisterRoutes(r)
	return r
}

func newStatusServer(addr string, c *cleaner.Cleaner, l *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newRouter(c, l),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
