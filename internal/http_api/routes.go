package http_api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/v1/pricing", s.pricing)
	s.router.GET("/api/v1/crawls", s.crawls)
	s.router.GET("/api/v1/earnings", s.earnings)

	// Every other path is answered by the content gate.
	s.router.NoRoute(s.content)
}
