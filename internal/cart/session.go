package cart

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

const (
	// SessionHeader carries the client-generated cart session id.
	SessionHeader = "X-Session-Id"
	// SessionCookie is the cookie fallback for browsers.
	SessionCookie = "sessionId"
	// SharedSessionID keys the single cart used when the shared fallback is on.
	SharedSessionID = "default-session"

	maxSessionIDLength = 128
)

// SessionResolver decides which cart session a request belongs to.
type SessionResolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderCookieResolver reads the session from the X-Session-Id header, then
// the sessionId cookie. With AllowSharedFallback every anonymous caller
// shares one cart, which is only meant for single-tenant debugging.
type HeaderCookieResolver struct {
	AllowSharedFallback bool
	Logger              *logger.Logger
}

func (h HeaderCookieResolver) Resolve(r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return checkSessionID(id)
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return checkSessionID(id)
		}
	}
	if h.AllowSharedFallback {
		if h.Logger != nil {
			h.Logger.Warn(r.Context(), "cart request without session id; using shared session")
		}
		return SharedSessionID, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "session id required")
}

func checkSessionID(id string) (string, error) {
	if len(id) > maxSessionIDLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id too long")
	}
	return id, nil
}
