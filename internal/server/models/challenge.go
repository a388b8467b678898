package models

import "time"

// ChallengePurpose distinguishes what a verification code unlocks.
type ChallengePurpose string

const (
	PurposeRegister ChallengePurpose = "register"
	PurposeReset    ChallengePurpose = "reset"
)

// Challenge is a short-lived one-time verification code bound to a pending
// registration or password reset. For registrations the account is not
// written until the code is verified, so the staged credential hash rides
// along on the challenge.
type Challenge struct {
	ID       string
	Code     string
	Purpose  ChallengePurpose
	Username string
	Email    string

	// PendingPasswordHash is the bcrypt hash of the password staged by the
	// registration or reset request. Nothing is written to the account
	// until the code is verified.
	PendingPasswordHash string

	IssuedAt time.Time
}

// ExpiredAt reports whether the challenge is older than validity at the
// given instant.
func (c *Challenge) ExpiredAt(now time.Time, validity time.Duration) bool {
	return now.Sub(c.IssuedAt) > validity
}
