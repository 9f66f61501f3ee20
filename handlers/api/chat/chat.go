package chat

import (
	"argo-gateway/envelope"
	"net/http"
)

// HandleListConversations returns the stored conversation list. Conversations
// are not persisted anywhere yet, so the list is always empty.
func HandleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope.OK(w, r, []any{})
	}
}
