package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"tunetrivia/internal/catalog"
	"tunetrivia/internal/db"
	"tunetrivia/internal/game"
	"tunetrivia/internal/wshub"
)

type Server struct {
	Game     *game.Coordinator
	Catalog  *catalog.Client // nil when no catalog is configured
	DB       *db.DB          // nil when running without an archive
	Registry *prometheus.Registry
	Origins  []string
	Limits   wshub.Limits
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	api.GET("/rooms/:code", s.handleRoom)
	api.GET("/tracks", s.handleTracks)
	api.POST("/tracks/refresh", s.handleRefreshTracks)
	api.POST("/answers/check", s.handleCheckAnswer)
	api.GET("/games/recent", s.handleRecentGames)

	return r
}

func (s *Server) allowAll() bool {
	for _, o := range s.Origins {
		if o == "*" {
			return true
		}
	}
	return len(s.Origins) == 0
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	if s.allowAll() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.Origins
	}
	return cfg
}

// originPatterns turns configured origins into the host patterns the
// websocket handshake checks against.
func (s *Server) originPatterns() []string {
	if s.allowAll() {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(s.Origins))
	for _, o := range s.Origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, strings.TrimSuffix(o, "/"))
	}
	return patterns
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
