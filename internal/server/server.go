// Package server exposes the ranking worker over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/metrics"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/chrisdamba/dishrank/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type job struct {
	ctx   context.Context
	msg   protocol.Message
	reply chan protocol.Response
}

// Server owns one shared worker for the HTTP routes, driven by a single
// dispatcher goroutine, and creates a private worker per websocket session.
type Server struct {
	cfg        models.ServerConfig
	dataset    atomic.Pointer[models.Dataset]
	engineOpts engine.Options
	loader     protocol.DatasetLoader
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	logger     *zap.Logger

	worker *protocol.Worker
	jobs   chan job
	seq    atomic.Int64
	cbor   *protocol.CBORCodec
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithLoader(l protocol.DatasetLoader) Option {
	return func(s *Server) { s.loader = l }
}

func WithEngineOptions(opts engine.Options) Option {
	return func(s *Server) { s.engineOpts = opts }
}

// New creates a server. data may be nil, in which case clients must send an
// init request before ranking.
func New(cfg models.ServerConfig, data *models.Dataset, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		logger:   zap.NewNop(),
		metrics:  metrics.NewMetrics(),
		registry: prometheus.NewRegistry(),
		jobs:     make(chan job),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engineOpts.Logger == nil {
		s.engineOpts.Logger = s.logger
	}
	if err := s.metrics.Register(s.registry); err != nil {
		return nil, err
	}

	codec, err := protocol.NewCBORCodec()
	if err != nil {
		return nil, err
	}
	s.cbor = codec

	s.worker, err = s.newWorker(data, s.logger)
	if err != nil {
		return nil, err
	}
	s.dataset.Store(data)
	return s, nil
}

func (s *Server) newWorker(data *models.Dataset, logger *zap.Logger) (*protocol.Worker, error) {
	var eng *engine.Engine
	if data != nil {
		opts := s.engineOpts
		opts.Logger = logger
		var err error
		if eng, err = engine.New(data, opts); err != nil {
			return nil, err
		}
	}
	return protocol.NewWorker(eng,
		protocol.WithLogger(logger),
		protocol.WithObserver(s.metrics),
		protocol.WithLoader(s.loader),
		protocol.WithEngineOptions(s.engineOpts),
	), nil
}

// dispatch runs every HTTP request through the shared worker one at a time.
func (s *Server) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			resp := s.worker.Handle(j.ctx, j.msg)
			if j.msg.Type == protocol.TypeInit && resp.Type == protocol.TypeReady {
				s.dataset.Store(s.worker.Engine().Dataset())
			}
			j.reply <- resp
		}
	}
}

func (s *Server) submit(ctx context.Context, msgType string, payload map[string]any) (protocol.Response, error) {
	j := job{
		ctx:   ctx,
		msg:   protocol.Message{Type: msgType, Seq: s.seq.Add(1), Payload: payload},
		reply: make(chan protocol.Response, 1),
	}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return protocol.Response{}, ctx.Err()
	}
	select {
	case resp := <-j.reply:
		return resp, nil
	case <-ctx.Done():
		return protocol.Response{}, ctx.Err()
	}
}

// Handler builds the gin router. The dispatcher must be running, see Start.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	r.GET("/zones", s.zones)
	r.POST("/init", s.message(protocol.TypeInit))
	r.POST("/rank", s.message(protocol.TypeCompute))
	r.POST("/solve", s.message(protocol.TypeSolve))
	r.GET("/ws", s.serveWS)
	return r
}

// Start launches the dispatcher. It stops when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.dispatch(ctx)
}

// Run serves HTTP on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
