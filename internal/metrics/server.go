package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a Store on /metrics and answers liveness checks on /health.
type Server struct {
	cfg      Config
	registry *prometheus.Registry
	engine   *gin.Engine
	logger   logger.Logger
}

func NewServer(cfg Config, store Reader, log logger.Logger) (*Server, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(newCollector(store)); err != nil {
		return nil, errFactory.Wrap(ErrRegisterFailed, err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	s := &Server{
		cfg:      cfg,
		registry: registry,
		engine:   engine,
		logger:   log,
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:          promErrorLog{log: log},
		ErrorHandling:     promhttp.HTTPErrorOnError,
		EnableOpenMetrics: true,
	})))
	engine.GET("/health", health)

	return s, nil
}

// Handler returns the HTTP handler serving both endpoints.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on all interfaces and serves until ctx is cancelled or the
// listener fails. It never returns nil.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return errors.New().Wrap(ErrListenFailed, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves requests accepted on ln. Each request runs in its own
// goroutine and only holds the store's lock while copying the snapshot.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errFactory := errors.New()

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: defaultReadTimeout,
	}

	s.logger.Info().Str("address", ln.Addr().String()).Msg("Metrics server running")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errFactory.Wrap(ErrServeFailed, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errFactory.Wrap(ErrServiceShutdown, err)
		}
		<-errCh

		s.logger.Debug().Msg("Metrics server stopped")
		return ctx.Err()
	}
}

func health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Metrics request served")
	}
}

// promErrorLog routes promhttp errors into the application logger.
type promErrorLog struct {
	log logger.Logger
}

func (l promErrorLog) Println(v ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(v...))
}
