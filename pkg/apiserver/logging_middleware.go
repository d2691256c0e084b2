package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

type logEntryKey struct{}

// realIP get the real IP from http request
func realIP(req *http.Request) string {
	ra := req.RemoteAddr
	if ip := req.Header.Get("X-Forwarded-For"); ip != "" {
		ra = strings.Split(ip, ", ")[0]
	} else if ip := req.Header.Get("X-Real-IP"); ip != "" {
		ra = ip
	} else {
		ra, _, _ = net.SplitHostPort(ra)
	}
	return ra
}

// requestLog returns the entry the logging middleware attached to ctx, so
// handlers log with the same request id.
func requestLog(ctx context.Context) *logrus.Entry {
	if log, ok := ctx.Value(logEntryKey{}).(*logrus.Entry); ok {
		return log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// loggingMiddleware tags every request with an id, logs its outcome and
// duration, and turns a handler panic into a 500.
func loggingMiddleware(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			log := logger.WithField("requestID", id)
			if remoteAddr := realIP(r); remoteAddr != "" {
				log = log.WithField("remoteAddr", remoteAddr)
			}

			wrapped := wrapResponseWriter(w)
			defer func() {
				if err := recover(); err != nil {
					log.WithField("status", http.StatusInternalServerError).Errorf("recovered error: %v\n%s", err, debug.Stack())
					if !wrapped.wroteHeader {
						writeError(wrapped, http.StatusInternalServerError, errors.New("internal error"))
					}
				}
			}()

			start := time.Now()
			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), logEntryKey{}, log)))

			if strings.Contains(r.URL.EscapedPath(), "healthz") {
				return
			}

			requestLogger := log.WithFields(logrus.Fields{
				"status":   wrapped.status,
				"method":   r.Method,
				"path":     r.URL.EscapedPath(),
				"duration": time.Since(start),
			})

			msg := fmt.Sprintf("handled: %d", wrapped.status)
			if wrapped.status >= 400 {
				requestLogger.Error(msg)
			} else {
				requestLogger.Debug(msg)
			}
		}

		return http.HandlerFunc(fn)
	}
}
