// Package auth holds the authentication endpoints. None of them are
// implemented yet; every route answers with a static placeholder and all
// gateway routes remain unauthenticated.
package auth

import (
	"argo-gateway/envelope"
	"net/http"
)

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	envelope.OKWithMessage(w, r, "Authentication endpoint - Coming soon!", map[string]any{
		"user":  map[string]any{"id": 1, "email": "demo@example.com"},
		"token": "demo-token",
	})
}

func HandleRegister(w http.ResponseWriter, r *http.Request) {
	envelope.OKWithMessage(w, r, "Registration endpoint - Coming soon!", nil)
}

func HandleProfile(w http.ResponseWriter, r *http.Request) {
	envelope.OK(w, r, map[string]any{
		"user": map[string]any{"id": 1, "email": "demo@example.com", "name": "Demo User"},
	})
}
