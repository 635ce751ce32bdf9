package web

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"smartwaste/internal/config"
	"smartwaste/internal/helper"
	"smartwaste/internal/rag"
)

//go:embed templates/*.html
var templates embed.FS

// Asker answers one question for one credential.
type Asker interface {
	Ask(ctx context.Context, credential, question string) rag.Result
}

type Server struct {
	asker           Asker
	content         *content
	defaultQuestion string
}

// NewRouter builds the pages, the JSON query API, health and metrics endpoints.
func NewRouter(cfg *config.Config, asker Asker, gatherer prometheus.Gatherer) (*gin.Engine, error) {
	c, err := newContent(cfg.Site)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{asker: asker, content: c, defaultQuestion: cfg.RAG.DefaultQuestion}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.page("inicio"))
	router.GET("/ecofriend", s.page("ecofriend"))
	router.POST("/ecofriend", s.AskForm)
	router.GET("/dashboard", s.page("dashboard"))
	router.GET("/conocenos", s.page("conocenos"))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/query", s.AskJSON)

	return router, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id, err := helper.GenerateUUID()
		if err == nil {
			c.Header("X-Request-ID", id)
		}
		c.Next()
		log.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	}
}
