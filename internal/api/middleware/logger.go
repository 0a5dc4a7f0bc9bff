package middleware

import (
	"net/http"
	"time"

	"github.com/hostdeck/hostdeck/internal/pkg/logger"
)

// statusRecorder captures the status code and byte count for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
	extra  map[string]interface{}
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// AddLogField attaches an extra field to the access log line for this request.
func AddLogField(w http.ResponseWriter, key string, value interface{}) {
	if sr, ok := w.(*statusRecorder); ok {
		sr.extra[key] = value
	}
}

// Logger emits one structured access log line per request.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{
				ResponseWriter: w,
				status:         http.StatusOK,
				extra:          make(map[string]interface{}),
			}

			next.ServeHTTP(rec, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).Milliseconds(),
				"bytes":      rec.bytes,
				"ip":         r.RemoteAddr,
				"request_id": GetRequestID(r),
			}
			for k, v := range rec.extra {
				fields[k] = v
			}
			log.WithFields(fields).Info("HTTP request")
		})
	}
}
