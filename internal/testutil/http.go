package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// DoJSON runs a request with a JSON body through a handler and returns
// the recorder. body may be empty.
func DoJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Envelope is the decoded success response shape.
type Envelope struct {
	Status  string          `json:"status"`
	Results *int            `json:"results"`
	Token   string          `json:"token"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a recorded response body.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

// DataField extracts data.<name> from an envelope into dst.
func DataField(t *testing.T, env Envelope, name string, dst any) {
	t.Helper()
	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	raw, ok := data[name]
	if !ok {
		t.Fatalf("data has no %q field", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data.%s: %v", name, err)
	}
}
