// Package api exposes capability detection, probing, output-path
// resolution and command building over HTTP. Encoding itself is not
// offered here.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hoffenc/internal/capability"
	"hoffenc/internal/encoder"
	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/outputpath"
	"hoffenc/internal/settings"
	"hoffenc/internal/util"
)

// Prober is the probing dependency of the server.
type Prober interface {
	Probe(ctx context.Context, path string) (mediaprobe.VideoInfo, bool)
}

// Server holds the handlers' dependencies.
type Server struct {
	Caps         *capability.Cache
	Prober       Prober
	FFmpegPath   string
	ProbeTimeout time.Duration
	Log          zerolog.Logger
}

type probeRequest struct {
	Path string `json:"path" binding:"required"`
}

type resolveRequest struct {
	Input             string          `json:"input" binding:"required"`
	OutputRoot        string          `json:"output_root" binding:"required"`
	Settings          json.RawMessage `json:"settings"`
	MaintainStructure bool            `json:"maintain_structure"`
	Base              string          `json:"base"`
}

type commandRequest struct {
	Input    string          `json:"input" binding:"required"`
	Output   string          `json:"output" binding:"required"`
	Settings json.RawMessage `json:"settings"`
	Tier     string          `json:"tier"`
}

type commandResponse struct {
	Args    []string `json:"args"`
	Command string   `json:"command"`
	Tier    string   `json:"tier"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/system", s.getSystem)
	api.POST("/system/refresh", s.refreshSystem)
	api.POST("/probe", s.probe)
	api.POST("/resolve", s.resolve)
	api.POST("/command", s.command)
	return r
}

func (s *Server) getSystem(c *gin.Context) {
	c.JSON(http.StatusOK, s.Caps.Get(c.Request.Context()))
}

func (s *Server) refreshSystem(c *gin.Context) {
	c.JSON(http.StatusOK, s.Caps.Refresh(c.Request.Context()))
}

func (s *Server) probe(c *gin.Context) {
	var req probeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	ctx := c.Request.Context()
	if s.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ProbeTimeout)
		defer cancel()
	}
	info, ok := s.Prober.Probe(ctx, req.Path)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "could not probe " + req.Path})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	es, ok := settingsOrDefault(c, req.Settings)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, outputpath.Plan(req.Input, req.OutputRoot, es, req.MaintainStructure, req.Base))
}

func (s *Server) command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tier, ok := encoder.ParseTier(req.Tier)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "tier must be optimal or conservative"})
		return
	}
	es, ok := settingsOrDefault(c, req.Settings)
	if !ok {
		return
	}
	snap := s.Caps.Get(c.Request.Context())
	args := encoder.Build(req.Input, req.Output, es, snap.Optimal, tier)
	c.JSON(http.StatusOK, commandResponse{
		Args:    args,
		Command: shellCommand(s.FFmpegPath, args),
		Tier:    tier.String(),
	})
}

// settingsOrDefault overlays the request settings onto the defaults and
// validates them, writing a 400 when they are invalid.
func settingsOrDefault(c *gin.Context, raw json.RawMessage) (settings.EncodingSettings, bool) {
	es := settings.Defaults()
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &es); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "settings: " + err.Error()})
			return settings.EncodingSettings{}, false
		}
	}
	if err := es.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return settings.EncodingSettings{}, false
	}
	return es, true
}

func shellCommand(ffmpeg string, args []string) string {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return util.ShellQuote(ffmpeg, args)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
