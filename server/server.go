// Package server exposes a running training loop over HTTP: the latest
// tick, episode statistics, prometheus metrics and a websocket stream of
// snapshots for live views.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// recentEpisodes kept for /stats
const recentEpisodes = 20

// Stats aggregates the finished episodes of every observed experiment
type Stats struct {
	Episodes   int                   `json:"episodes"`
	Crashes    int                   `json:"crashes"`
	Ticks      int                   `json:"ticks"`
	BestLength int                   `json:"best_length"`
	Recent     []types.EpisodeResult `json:"recent"`
}

type Server struct {
	server   *http.Server
	hub      *hub
	metrics  *metrics
	registry *prometheus.Registry
	logger   log.Logger

	lock  *sync.Mutex
	last  *types.Snapshot
	stats Stats
}

var _ types.Observer = &Server{}

func New(addr string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = log.With(logger, "component", "server")
	registry := prometheus.NewRegistry()
	s := &Server{
		hub:      newHub(logger),
		metrics:  newMetrics(registry),
		registry: registry,
		logger:   logger,
		lock:     new(sync.Mutex),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", healthHandler)
	r.GET("/snapshot", s.handleSnapshot)
	r.GET("/stats", s.handleStats)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	r.GET("/ws", s.handleWebsocket)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler is the router, exposed for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	level.Info(s.logger).Log("msg", "serving", "addr", s.server.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	s.hub.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) OnTick(snapshot types.Snapshot) {
	s.lock.Lock()
	s.last = &snapshot
	s.lock.Unlock()

	s.metrics.tick(snapshot)
	s.hub.broadcast(snapshot)
}

func (s *Server) OnEpisodeEnd(result types.EpisodeResult) {
	s.metrics.episode(result)

	s.lock.Lock()
	defer s.lock.Unlock()
	s.stats.Episodes++
	if result.Crashed {
		s.stats.Crashes++
	}
	s.stats.Ticks += result.Length
	if result.Length > s.stats.BestLength {
		s.stats.BestLength = result.Length
	}
	s.stats.Recent = append(s.stats.Recent, result)
	if len(s.stats.Recent) > recentEpisodes {
		s.stats.Recent = s.stats.Recent[len(s.stats.Recent)-recentEpisodes:]
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	s.lock.Lock()
	last := s.last
	s.lock.Unlock()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tick observed yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) handleStats(c *gin.Context) {
	s.lock.Lock()
	stats := s.stats
	stats.Recent = append([]types.EpisodeResult{}, s.stats.Recent...)
	s.lock.Unlock()
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleWebsocket(c *gin.Context) {
	s.hub.serve(c.Writer, c.Request)
}
