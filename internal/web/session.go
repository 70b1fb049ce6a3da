package web

import (
	"context"
	"net/http"

	"github.com/rescale/drive-explorer/internal/auth"
	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/explorer"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *explorer.Session {
	s, _ := ctx.Value(sessionKey{}).(*explorer.Session)
	return s
}

// withSession attaches the visitor's session, starting one (and authenticating)
// when the cookie is missing or the session has expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *explorer.Session
		if c, err := r.Cookie(constants.SessionCookieName); err == nil {
			sess, _ = s.sessions.Get(c.Value)
		}
		if sess == nil {
			created, err := s.sessions.Create(r.Context())
			if err != nil {
				s.sessionFailed(w, r, err)
				return
			}
			sess = created
			http.SetCookie(w, &http.Cookie{
				Name:     constants.SessionCookieName,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func (s *Server) sessionFailed(w http.ResponseWriter, r *http.Request, err error) {
	title := "Could not start a session"
	if auth.IsAuthenticationError(err) {
		title = "Authentication failed"
		s.log.Error().Err(err).Msg("Identity platform rejected the application credentials")
	} else {
		s.log.Error().Err(err).Msg("Session start failed")
	}
	if wantsHTML(r) {
		s.renderFatal(w, http.StatusServiceUnavailable, title, err.Error())
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, apiError{Error: title, Detail: err.Error()})
}
