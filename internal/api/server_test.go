package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/element"
	"github.com/samcharles93/loprec/pkg/graph"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	NewServer(nil).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func encodeTestGraph(t *testing.T) string {
	t.Helper()
	g := graph.New("api-test")
	in := g.AddParameter("input", element.U8, []int{1, 1, 2, 2})
	relu := g.AddNode(graph.OpRelu, "relu", in)
	g.AddResult("output", relu)
	d := dequant.Descriptor{Convert: element.F32, Multiply: dequant.ScalarMultiply(0.1)}
	if err := g.SetInputDescriptor(relu, d); err != nil {
		t.Fatalf("attach: %v", err)
	}
	data, err := graph.Encode(g)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(data)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestEcho(), http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestTransformEndpoint(t *testing.T) {
	t.Parallel()

	body := `{"graph":` + encodeTestGraph(t) + `,"params":{"preset":"u8i8"}}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/transform", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("transform status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp TransformResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if resp.Report.Transformed != 1 {
		t.Fatalf("expected one rewrite, got %+v", resp.Report)
	}

	g, err := graph.Decode(resp.Graph)
	if err != nil {
		t.Fatalf("decode transformed graph: %v", err)
	}
	// The relu sits at index 1; no-shift scale must have moved past it.
	if !g.InputDescriptor(1).IsEmpty() {
		t.Fatalf("input descriptor should be detached")
	}
	if g.OutputDescriptor(1).IsEmpty() {
		t.Fatalf("output descriptor missing")
	}
}

func TestVerifyEndpoint(t *testing.T) {
	t.Parallel()

	body := `{"graph":` + encodeTestGraph(t) +
		`,"params":{"preset":"u8i8"},"inputs":{"input":[0,1,128,255]}}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/verify", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp VerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Equivalent {
		t.Fatalf("rewrite must preserve evaluation, max diff %g", resp.MaxDiff)
	}
}

func TestTransformRejectsBadRequests(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	cases := map[string]string{
		"no graph":     `{"params":{"preset":"u8i8"}}`,
		"bad preset":   `{"graph":` + encodeTestGraph(t) + `,"params":{"preset":"fp4"}}`,
		"corrupt body": `{`,
	}
	for name, body := range cases {
		rec := doJSON(t, e, http.MethodPost, "/v1/transform", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestVerifyRequiresInputs(t *testing.T) {
	t.Parallel()

	body := `{"graph":` + encodeTestGraph(t) + `,"params":{"preset":"u8i8"}}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/verify", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
