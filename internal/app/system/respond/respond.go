// Package respond writes the uniform success envelope:
//
//	{"status":"success","data":{...}}
//
// List responses additionally carry a "results" count. Error responses
// are written by apperr, never here.
package respond

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Success writes {"status":"success","data":data} with the given status.
func Success(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Status: "success", Data: data})
}

// List writes a success envelope with a results count.
func List(w http.ResponseWriter, results int, data any) {
	write(w, http.StatusOK, envelope{Status: "success", Results: &results, Data: data})
}

// Token writes a success envelope that also carries a credential, used
// by signup/login/password flows.
func Token(w http.ResponseWriter, status int, token string, data any) {
	write(w, status, envelope{Status: "success", Token: token, Data: data})
}

// NoContent writes an empty 204 response (delete success).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Message writes a success envelope with only a message, e.g. when a
// reset token was mailed.
func Message(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": msg})
}
