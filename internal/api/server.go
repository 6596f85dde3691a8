// Package api serves the decoder's state over HTTP: live station
// snapshots, synchronizer diagnostics and prometheus metrics. It reads
// the pipeline's thread-safe views and never touches decode state.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-rds-decoder/internal/config"
	"go-rds-decoder/internal/rds"
)

type Server struct {
	cfg     *config.Config
	decoder *rds.Decoder
	router  *gin.Engine
}

func New(cfg *config.Config, decoder *rds.Decoder) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		decoder: decoder,
		router:  gin.New(),
	}
	s.router.Use(gin.Recovery())

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	s.router.Use(cors.New(corsConfig))

	// Station state is live data; intermediaries must not cache it.
	s.router.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "go-rds-decoder"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/stations", s.listStations)
		api.GET("/stations/:pi", s.getStation)
		api.GET("/status", s.getStatus)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) listStations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stations": s.decoder.Tracker().Snapshots()})
}

// getStation accepts the PI as hex, the form it is logged and
// broadcast in.
func (s *Server) getStation(c *gin.Context) {
	pi, err := strconv.ParseUint(c.Param("pi"), 16, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pi must be a 16-bit hex code"})
		return
	}
	v, ok := s.decoder.Tracker().Snapshot(uint16(pi))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such station"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.decoder.Status())
}

// Run blocks serving HTTP on the configured address.
func (s *Server) Run() error {
	return s.router.Run(s.cfg.Server.Listen)
}

// Handler exposes the routing tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
