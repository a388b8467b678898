package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/dayplanner/internal/server/auth"
	"github.com/dmitrijs2005/dayplanner/internal/server/sessions"
)

const (
	sessionCookie = "dp_session"
	sessionKey    = "session"
)

// sessionMiddleware resolves the session cookie to a server-side session.
// Requests without a valid cookie get a fresh anonymous session, so every
// handler downstream can rely on one being present.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	secret := []byte(s.config.SecretKey)

	return func(c *gin.Context) {
		var sess *sessions.Session

		if token, err := c.Cookie(sessionCookie); err == nil {
			if id, err := auth.GetSessionIDFromToken(token, secret); err == nil {
				if found, err := s.sessions.Get(id); err == nil {
					sess = found
				}
			}
		}

		if sess == nil {
			sess = s.sessions.Create()
			token, err := auth.GenerateToken(sess.ID, secret, s.config.SessionValidityDuration)
			if err != nil {
				s.writeError(c, err)
				c.Abort()
				return
			}
			maxAge := int(s.config.SessionValidityDuration.Seconds())
			c.SetCookie(sessionCookie, token, maxAge, "/", "", false, true)
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// requireAuth rejects requests whose session is not authenticated.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.session(c)
		if sess.State != sessions.StateAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.Next()
	}
}

// session returns the session the middleware attached. Panics if the
// middleware did not run, which is a wiring bug.
func (s *Server) session(c *gin.Context) *sessions.Session {
	return c.MustGet(sessionKey).(*sessions.Session)
}
