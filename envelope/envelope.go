// Package envelope renders the uniform `{success, data|message}` wrapper
// applied to every HTTP response of the gateway.
package envelope

import (
	"net/http"

	"github.com/go-chi/render"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a 200 response carrying data.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Response{Success: true, Data: data})
}

// OKWithMessage writes a 200 response carrying both a message and data.
func OKWithMessage(w http.ResponseWriter, r *http.Request, message string, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Response{Success: true, Message: message, Data: data})
}

// Error writes a failure response with the given status code. The message is
// the only detail exposed to the caller; upstream error internals stay in the
// server logs.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Message: message})
}
