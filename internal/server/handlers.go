package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tunetrivia/internal/catalog"
	"tunetrivia/internal/utility"
	"tunetrivia/internal/wshub"
)

const recentGamesLimit = 10

func (s *Server) handleHealth(c *gin.Context) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	wshub.Serve(c.Request.Context(), conn, s.Game, s.Limits)
}

func (s *Server) handleRoom(c *gin.Context) {
	summary, ok := s.Game.Summary(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleTracks(c *gin.Context) {
	if s.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return
	}
	tracks, err := s.Catalog.Fetch(c.Request.Context(), c.Query("genre"))
	s.writeTracks(c, tracks, err)
}

func (s *Server) handleRefreshTracks(c *gin.Context) {
	if s.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return
	}
	tracks, err := s.Catalog.Refresh(c.Request.Context(), c.Query("genre"))
	s.writeTracks(c, tracks, err)
}

func (s *Server) writeTracks(c *gin.Context, tracks []catalog.Track, err error) {
	if err != nil {
		log.Warn().Err(err).Str("genre", c.Query("genre")).Msg("catalog fetch failed")
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "failed to fetch tracks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

type answerCheck struct {
	Guess  string `json:"guess" binding:"required,max=200"`
	Answer string `json:"answer" binding:"required,max=200"`
}

func (s *Server) handleCheckAnswer(c *gin.Context) {
	var req answerCheck
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correct":    utility.MatchAnswer(req.Guess, req.Answer),
		"normalized": utility.NormalizeAnswer(req.Guess),
	})
}

func (s *Server) handleRecentGames(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive not configured"})
		return
	}
	games, err := s.DB.RecentGames(c.Request.Context(), recentGamesLimit)
	if err != nil {
		log.Error().Err(err).Msg("listing recent games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}
