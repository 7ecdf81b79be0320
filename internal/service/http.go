package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/synadia-labs/node-info-server/internal/config"
	"github.com/synadia-labs/node-info-server/internal/logger"
	"go.uber.org/zap"
)

const RequestIdHeader = "X-Request-Id"

type RequestId string

const (
	RequestIdKey RequestId = "request_id"
)

type Middleware func(http.Handler) http.Handler

type HTTPServer interface {
	// serve on ln until Shutdown is called
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
	Handler() http.Handler
}

type httpServer struct {
	server *http.Server
}

func (s *httpServer) Serve(ln net.Listener) error {
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *httpServer) Handler() http.Handler {
	return s.server.Handler
}

// NewHTTPServer serves the node listing on every method and path. Requests
// are only logged when cfg.AccessLog is set.
func NewHTTPServer(cfg config.HttpConfig, lister Lister, log *zap.SugaredLogger) HTTPServer {
	middlewares := []Middleware{requestIdMiddleware}
	if cfg.AccessLog {
		middlewares = append(middlewares, logMiddleware(log))
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := lister.List()
		status := http.StatusOK
		if !res.OK() {
			status = http.StatusInternalServerError
		}
		writeText(w, status, res.Body())
	})

	// Apply middlewares in reverse order so they execute in the correct sequence
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return &httpServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logger.StdLog(log),
		},
	}
}

func writeText(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

// Unique ID for each request
func requestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(RequestIdHeader, id)
		ctx := context.WithValue(r.Context(), RequestIdKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Log requests
func logMiddleware(log *zap.SugaredLogger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId, _ := r.Context().Value(RequestIdKey).(string)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestId,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
