// Package api exposes the transformation engine over a small REST
// surface: submit a graph, get the rewritten graph and a pass report
// back.
package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/loprec/internal/eval"
	"github.com/samcharles93/loprec/internal/logger"
	"github.com/samcharles93/loprec/internal/lpt"
	"github.com/samcharles93/loprec/internal/version"
	"github.com/samcharles93/loprec/pkg/graph"
)

const defaultTolerance = 1e-5

// Server wires the transformer into HTTP handlers.
type Server struct {
	log logger.Logger
}

// NewServer creates a Server logging through log.
func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{log: log}
}

// Register mounts all routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/health", s.handleHealth)
	e.GET("/v1/version", s.handleVersion)
	e.POST("/v1/transform", s.handleTransform)
	e.POST("/v1/verify", s.handleVerify)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleTransform(c *echo.Context) error {
	req, err := decodeJSON[TransformRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "decode request: "+err.Error())
	}

	g, params, err := s.prepare(req.Graph, req.Params)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	report, err := lpt.NewTransformer(params, s.log).Run(g)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, "transform_error", err.Error())
	}
	encoded, err := graph.Encode(g)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, TransformResponse{Report: report, Graph: encoded})
}

func (s *Server) handleVerify(c *echo.Context) error {
	req, err := decodeJSON[VerifyRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "decode request: "+err.Error())
	}
	if len(req.Inputs) == 0 {
		return writeBadRequest(c, "verify requires input tensors")
	}

	original, params, err := s.prepare(req.Graph, req.Params)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	transformed := original.Clone()

	report, err := lpt.NewTransformer(params, s.log).Run(transformed)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, "transform_error", err.Error())
	}

	diff, err := eval.Compare(original, transformed, req.Inputs)
	if err != nil {
		return writeError(c, http.StatusUnprocessableEntity, "verify_error", err.Error())
	}
	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return c.JSON(http.StatusOK, VerifyResponse{
		Report:     report,
		MaxDiff:    diff,
		Equivalent: diff <= tolerance,
	})
}

func (s *Server) prepare(doc json.RawMessage, cfg lpt.ParamsConfig) (*graph.Graph, lpt.Params, error) {
	if len(doc) == 0 {
		return nil, lpt.Params{}, newInvalidRequest("missing graph")
	}
	g, err := graph.Decode(doc)
	if err != nil {
		return nil, lpt.Params{}, newInvalidRequest("decode graph: " + err.Error())
	}
	params, err := cfg.Build()
	if err != nil {
		return nil, lpt.Params{}, newInvalidRequest("params: " + err.Error())
	}
	return g, params, nil
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{Message: msg, Type: errType},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
