// Package services contains the server-side business logic: account
// lifecycle, verification codes, task operations, exports, and reminders.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/accounts"
)

// UserService handles registration, login, and password resets. Both flows
// that change credentials go through an emailed verification code; the
// account row is only touched after the code checks out.
type UserService struct {
	accounts     accounts.Repository
	verification *VerificationService
}

func NewUserService(repo accounts.Repository, verification *VerificationService) *UserService {
	return &UserService{accounts: repo, verification: verification}
}

// hashPassword is a seam for tests; bcrypt at default cost is slow on
// purpose.
var hashPassword = func(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Register validates the submitted form and issues a verification code. The
// account is not created yet; the password hash is staged on the challenge
// and the plaintext is dropped here. A username that is already taken is
// rejected before any code is sent.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.Challenge, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" {
		return nil, common.ErrMissingField
	}
	if password == "" {
		return nil, common.ErrEmptyPassword
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return nil, common.ErrUsernameTaken
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.verification.Issue(ctx, models.PurposeRegister, username, email, hash)
}

// CompleteRegistration consumes the verification code and creates the
// account. Uniqueness is checked again at insert time, the username may have
// been taken while the code was in flight.
func (s *UserService) CompleteRegistration(ctx context.Context, challengeID, code string) (*models.Account, error) {
	c, err := s.verification.Verify(ctx, challengeID, code)
	if err != nil {
		return nil, err
	}
	if c.Purpose != models.PurposeRegister {
		return nil, common.ErrNotFound
	}

	acc := &models.Account{
		Username:     c.Username,
		PasswordHash: c.PendingPasswordHash,
		Email:        c.Email,
	}
	return s.accounts.Create(ctx, acc)
}

// Authenticate checks the credentials. Unknown usernames and wrong passwords
// both come back as ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrUnauthorized
	}

	return acc, nil
}

// RequestPasswordReset stages a new password for an existing account and
// emails a verification code to the address on file. The stored credential
// is untouched until the code is verified.
func (s *UserService) RequestPasswordReset(ctx context.Context, username, newPassword string) (*models.Challenge, error) {
	if strings.TrimSpace(username) == "" {
		return nil, common.ErrMissingField
	}
	if newPassword == "" {
		return nil, common.ErrEmptyPassword
	}

	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.verification.Issue(ctx, models.PurposeReset, acc.Username, acc.Email, hash)
}

// CompletePasswordReset consumes the verification code and swaps in the
// staged password hash.
func (s *UserService) CompletePasswordReset(ctx context.Context, challengeID, code string) error {
	c, err := s.verification.Verify(ctx, challengeID, code)
	if err != nil {
		return err
	}
	if c.Purpose != models.PurposeReset {
		return common.ErrNotFound
	}

	return s.accounts.UpdatePassword(ctx, c.Username, c.PendingPasswordHash)
}
