package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Msg   string  `json:"msg"`
	Data  any     `json:"data"`
	Token *string `json:"token"`
}

// ErrorResponse is the failure envelope. Error carries field-level details only.
type ErrorResponse struct {
	Msg   string `json:"msg"`
	Error any    `json:"error,omitempty"`
}

// ResponseJSON writes payload as JSON with the given status code
func ResponseJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, msg string, data any, token string) {
	ResponseJSON(w, http.StatusOK, Response{Msg: msg, Data: data, Token: tokenPtr(token)})
}

// returns 201 Created
func ResponseCreated(w http.ResponseWriter, msg string, data any, token string) {
	ResponseJSON(w, http.StatusCreated, Response{Msg: msg, Data: data, Token: tokenPtr(token)})
}

func tokenPtr(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

// ------------- Error responses -------------

// returns 400 Bad Request
func ResponseBadRequest(w http.ResponseWriter, msg string, errors any) {
	ResponseJSON(w, http.StatusBadRequest, ErrorResponse{Msg: msg, Error: errors})
}

// returns 401 Unauthorized
func ResponseUnauthorized(w http.ResponseWriter, msg string) {
	ResponseJSON(w, http.StatusUnauthorized, ErrorResponse{Msg: msg})
}

// returns 404 Not Found
func ResponseNotFound(w http.ResponseWriter, msg string) {
	ResponseJSON(w, http.StatusNotFound, ErrorResponse{Msg: msg})
}

// returns 500 Internal Server Error
func ResponseInternalError(w http.ResponseWriter, msg string) {
	ResponseJSON(w, http.StatusInternalServerError, ErrorResponse{Msg: msg})
}
