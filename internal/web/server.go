package web

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cafelist/internal/config"
	"cafelist/internal/stats"
)

// NewRouter assembles the gin engine: templates, CORS, session
// resolution, stats, and all routes.
func NewRouter(cfg *config.Config, h *Handler, collector *stats.Collector) (*gin.Engine, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if err := h.LoadTemplates(router); err != nil {
		return nil, err
	}

	if collector != nil {
		router.Use(RecordStats(collector))
	}
	router.Use(h.ResolveUser())

	router.GET("/", h.Index)
	router.GET("/caffe", h.ShowCafe)
	router.POST("/caffe", h.PostReview)
	router.GET("/register", h.ShowRegister)
	router.POST("/register", h.Register)
	router.GET("/login", h.ShowLogin)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)

	authed := router.Group("/")
	authed.Use(h.RequireAuth())
	{
		authed.GET("/add_cafe", h.ShowAddCafe)
		authed.POST("/add_cafe", h.AddCafe)
	}

	// Delete checks auth itself: a missing id must 404 before the
	// login redirect.
	router.GET("/delete", h.DeleteCafe)

	return router, nil
}
