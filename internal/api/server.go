// Package api exposes a dashboard over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/dashboard"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/reporting"
)

const apiBasePath = "/api"

// Options configures a Server.
type Options struct {
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
	Reports  *reporting.Generator
	Logger   logrus.FieldLogger
}

// Server routes HTTP requests to one dashboard.
type Server struct {
	router  *gin.Engine
	dash    *dashboard.Dashboard
	reports *reporting.Generator
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// NewServer wires the gin engine with every route.
func NewServer(d *dashboard.Dashboard, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Reports == nil {
		opts.Reports = reporting.NewGenerator()
	}

	s := &Server{
		router:  gin.New(),
		dash:    d,
		reports: opts.Reports,
		metrics: opts.Metrics,
		log:     opts.Logger.WithField("component", "api"),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestMiddleware())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(observability.Handler(opts.Gatherer)))
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group(apiBasePath)
	{
		api.GET("/page", s.getPage)
		api.GET("/derivations/:kind", s.getDerivation)
		api.GET("/activity", s.getActivity)
		api.GET("/report", s.getReport)

		filters := api.Group("/filters")
		{
			filters.GET("", s.getFilter)
			filters.DELETE("", s.resetFilter)
			filters.PUT("/:dimension", s.setFilter)
			filters.DELETE("/:dimension", s.clearFilter)
		}

		api.POST("/unicorns", s.createUnicorn)
		api.PATCH("/unicorns/:id/status", s.updateStatus)
		api.POST("/trades", s.createTrade)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestMiddleware logs each request and records it in the HTTP metrics.
func (s *Server) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.RecordHTTPRequest(c.Request.Method, route, status)

		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start),
		}).Debug("request completed")
	}
}
