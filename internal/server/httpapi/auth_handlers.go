package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/sessions"
)

// handleRegister starts the registration flow: validate the form, stage the
// credentials on a verification challenge, and park the session until the
// emailed code comes back.
func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)

	challenge, err := s.users.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil && !errors.Is(err, common.ErrTransportFailure) {
		s.writeError(c, err)
		return
	}
	sendFailed := err != nil

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAwaitingEmailVerification, func(ss *sessions.Session) {
		ss.ChallengeID = challenge.ID
	}); err != nil {
		s.writeError(c, err)
		return
	}

	resp := gin.H{"state": sessions.StateAwaitingEmailVerification}
	if sendFailed {
		// The challenge is pending, only delivery failed.
		resp["warning"] = "verification code could not be delivered"
	}
	c.JSON(http.StatusAccepted, resp)
}

// handleRegisterVerify consumes the emailed code and creates the account. A
// wrong code leaves the session parked so the user can retry; an expired or
// vanished challenge drops the session back to anonymous.
func (s *Server) handleRegisterVerify(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)
	if sess.State != sessions.StateAwaitingEmailVerification {
		s.writeError(c, common.ErrInvalidTransition)
		return
	}

	acc, err := s.users.CompleteRegistration(c.Request.Context(), sess.ChallengeID, req.Code)
	if err != nil {
		if errors.Is(err, common.ErrCodeExpired) || errors.Is(err, common.ErrNotFound) {
			_, _ = s.sessions.Transition(sess.ID, sessions.StateAnonymous, func(ss *sessions.Session) {
				ss.ChallengeID = ""
			})
		}
		s.writeError(c, err)
		return
	}

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAuthenticated, func(ss *sessions.Session) {
		ss.Username = acc.Username
		ss.ChallengeID = ""
	}); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": sessions.StateAuthenticated, "username": acc.Username})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)

	acc, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAuthenticated, func(ss *sessions.Session) {
		ss.Username = acc.Username
		ss.ChallengeID = ""
	}); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": sessions.StateAuthenticated, "username": acc.Username})
}

func (s *Server) handleLogout(c *gin.Context) {
	sess := s.session(c)

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAnonymous, func(ss *sessions.Session) {
		ss.Username = ""
		ss.ChallengeID = ""
	}); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": sessions.StateAnonymous})
}

// handleResetRequest opens the password-reset flow and issues the code in
// one request: the session passes through the reset-request state and lands
// in reset-verification with the challenge attached.
func (s *Server) handleResetRequest(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)

	if sess.State != sessions.StateAwaitingResetRequest {
		if _, err := s.sessions.Transition(sess.ID, sessions.StateAwaitingResetRequest, nil); err != nil {
			s.writeError(c, err)
			return
		}
	}

	challenge, err := s.users.RequestPasswordReset(c.Request.Context(), req.Username, req.NewPassword)
	if err != nil && !errors.Is(err, common.ErrTransportFailure) {
		_, _ = s.sessions.Transition(sess.ID, sessions.StateAnonymous, nil)
		s.writeError(c, err)
		return
	}
	sendFailed := err != nil

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAwaitingResetVerification, func(ss *sessions.Session) {
		ss.ChallengeID = challenge.ID
	}); err != nil {
		s.writeError(c, err)
		return
	}

	resp := gin.H{"state": sessions.StateAwaitingResetVerification}
	if sendFailed {
		resp["warning"] = "verification code could not be delivered"
	}
	c.JSON(http.StatusAccepted, resp)
}

func (s *Server) handleResetVerify(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)
	if sess.State != sessions.StateAwaitingResetVerification {
		s.writeError(c, common.ErrInvalidTransition)
		return
	}

	if err := s.users.CompletePasswordReset(c.Request.Context(), sess.ChallengeID, req.Code); err != nil {
		if errors.Is(err, common.ErrCodeExpired) || errors.Is(err, common.ErrNotFound) {
			_, _ = s.sessions.Transition(sess.ID, sessions.StateAnonymous, func(ss *sessions.Session) {
				ss.ChallengeID = ""
			})
		}
		s.writeError(c, err)
		return
	}

	if _, err := s.sessions.Transition(sess.ID, sessions.StateAnonymous, func(ss *sessions.Session) {
		ss.ChallengeID = ""
	}); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": sessions.StateAnonymous})
}
