package api

import (
	"github.com/goccy/go-json"

	"github.com/samcharles93/loprec/internal/lpt"
)

// TransformRequest asks the server to run one transformation pass over
// a graph in its JSON interchange form.
type TransformRequest struct {
	Graph  json.RawMessage  `json:"graph"`
	Params lpt.ParamsConfig `json:"params"`
}

// TransformResponse returns the pass report together with the
// rewritten graph.
type TransformResponse struct {
	Report lpt.Report      `json:"report"`
	Graph  json.RawMessage `json:"graph"`
}

// VerifyRequest asks the server to transform a graph and check that
// the rewrite preserved its numeric behavior on the given inputs.
type VerifyRequest struct {
	Graph     json.RawMessage      `json:"graph"`
	Params    lpt.ParamsConfig     `json:"params"`
	Inputs    map[string][]float32 `json:"inputs"`
	Tolerance float64              `json:"tolerance,omitempty"`
}

// VerifyResponse reports the largest output divergence found.
type VerifyResponse struct {
	Report     lpt.Report `json:"report"`
	MaxDiff    float64    `json:"max_diff"`
	Equivalent bool       `json:"equivalent"`
}

// ResponseError is the error payload shape of every non-2xx response.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
