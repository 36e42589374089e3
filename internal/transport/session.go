package transport

import (
	"net/http"

	"github.com/google/uuid"

	"vendo/internal/session"
)

// SessionCookie names the cookie carrying the shopper's session id.
const SessionCookie = "vendo_session"

// resolveSession loads or creates the session for this request and
// refreshes the cookie. The returned session already reflects the
// machine-lock state.
func resolveSession(w http.ResponseWriter, r *http.Request, manager *session.Manager) *session.Session {
	var id uuid.UUID
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		id, _ = uuid.Parse(cookie.Value)
	}

	sess := manager.Resolve(id)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sess
}
