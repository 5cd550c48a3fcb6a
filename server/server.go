package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/config"
	"narrated-video-pipeline/types"
)

// Generator is the selector half of the pipeline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (types.Generation, error)
}

// Composer is the rendering half of the pipeline.
type Composer interface {
	Compose(ctx context.Context, job types.Composition) (types.OutputVideo, error)
}

type Server struct {
	Router *gin.Engine

	gen          Generator
	comp         Composer
	staticRoot   string
	staticPrefix string
}

func New(cfg *config.Config, gen Generator, comp Composer) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors())

	s := &Server{
		Router:       router,
		gen:          gen,
		comp:         comp,
		staticRoot:   cfg.Paths.Static,
		staticPrefix: cfg.Server.StaticPrefix,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.Router.POST("/generate", s.handleGenerate)
	s.Router.POST("/final-video", s.handleFinalVideo)

	s.Router.Static(s.staticPrefix, s.staticRoot)
}

// cors allows any origin so a separately hosted frontend can call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.Str("stage", "server").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
