// Package panel serves the heatmap control panel over HTTP: JSON routes for
// the parameters, pass triggering and statistics, plus a websocket feed of
// parameter changes and pass summaries.
package panel

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/controls"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/model"
)

// Controls is the slice of controls.Panel the HTTP surface drives.
type Controls interface {
	Parameters() model.HeatmapParameters
	Set(name controls.Parameter, v float64) (float64, error)
	Trigger(ctx context.Context) (*core.PassResult, error)
	LastResult() *core.PassResult
	OnChange(fn func(controls.Change)) (remove func())
	OnPass(fn func(*core.PassResult)) (remove func())
}

// LineSource exposes recent report lines, e.g. a report.Recorder.
type LineSource interface {
	Lines() []string
}

// Server owns the gin engine and websocket hub.
type Server struct {
	controls Controls
	hub      *Hub
	lines    LineSource
	log      logging.Logger
	engine   *gin.Engine
	detach   []func()
}

// Option customises a Server.
type Option func(*Server)

// WithReportLines exposes src at GET /api/v1/report.
func WithReportLines(src LineSource) Option {
	return func(s *Server) { s.lines = src }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer builds the router and subscribes the hub to ctrl. Call Close to
// unsubscribe.
func NewServer(ctrl Controls, opts ...Option) *Server {
	s := &Server{controls: ctrl, log: logging.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.log)
	s.engine = s.routes()

	s.detach = append(s.detach,
		ctrl.OnChange(func(c controls.Change) {
			s.hub.Broadcast(Event{Type: EventParameter, Data: changeBody(c)})
		}),
		ctrl.OnPass(func(res *core.PassResult) {
			s.hub.Broadcast(Event{Type: EventPass, Data: controls.PassSummary(res)})
		}),
	)
	return s
}

// Hub returns the websocket hub; its Run loop must be started by the caller.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Close removes the panel listeners.
func (s *Server) Close() {
	for _, fn := range s.detach {
		fn()
	}
	s.detach = nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	api := r.Group("/api/v1")
	{
		api.GET("/parameters", s.getParameters)
		api.PUT("/parameters/:name", s.setParameter)
		api.POST("/regenerate", s.regenerate)
		api.GET("/stats", s.stats)
		api.GET("/report", s.report)
	}
	return r
}

func (s *Server) getParameters(c *gin.Context) {
	params := s.controls.Parameters()
	body := controls.ParametersMap(params)
	if err := controls.Validate(params); err != nil {
		body["warning"] = err.Error()
	}
	success(c, body)
}

type setParameterRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

func (s *Server) setParameter(c *gin.Context) {
	name := controls.Parameter(c.Param("name"))
	if _, ok := name.Limits(); !ok {
		notFound(c, "unknown parameter "+string(name))
		return
	}

	var req setParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be {\"value\": <number>}")
		return
	}

	stored, err := s.controls.Set(name, *req.Value)
	switch {
	case errors.Is(err, controls.ErrInvalidValue):
		badRequest(c, err.Error())
		return
	case err != nil:
		internalError(c, err.Error())
		return
	}

	success(c, gin.H{
		"name":       name,
		"value":      stored,
		"label":      name.Label(stored),
		"clamped":    stored != *req.Value,
		"parameters": controls.ParametersMap(s.controls.Parameters()),
	})
}

func (s *Server) regenerate(c *gin.Context) {
	res, err := s.controls.Trigger(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		internalError(c, err.Error())
		return
	}
	success(c, controls.PassSummary(res))
}

func (s *Server) stats(c *gin.Context) {
	res := s.controls.LastResult()
	if res == nil {
		notFound(c, "no heatmap pass has completed")
		return
	}
	success(c, controls.PassSummary(res))
}

func (s *Server) report(c *gin.Context) {
	if s.lines == nil {
		success(c, []string{})
		return
	}
	success(c, s.lines.Lines())
}

func changeBody(c controls.Change) gin.H {
	return gin.H{
		"name":       c.Parameter,
		"value":      c.Value,
		"label":      c.Label,
		"parameters": controls.ParametersMap(c.Params),
	}
}
