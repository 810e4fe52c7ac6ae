package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/response"
)

// NewRouter assembles the engine: request logging, recovery, the API, the
// realtime endpoint and, when staticDir is set, the web client.
func NewRouter(logger zerolog.Logger, api *Handler, ws *WSHandler, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(log.GinMiddleware(logger), gin.Recovery())

	api.RegisterRoutes(r)

	var static gin.HandlerFunc
	if staticDir != "" {
		static = StaticHandler(staticDir)
	}
	ws.RegisterRoutes(r, static)

	r.NoRoute(func(c *gin.Context) {
		if static == nil || c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.NotFound(c, "not found")
			return
		}
		static(c)
	})
	return r
}

// StaticHandler serves files from dir and falls back to index.html so the
// single-page client can route on its own.
func StaticHandler(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}
		if _, err := os.Stat(index); err != nil {
			response.NotFound(c, "not found")
			return
		}
		c.File(index)
	}
}
