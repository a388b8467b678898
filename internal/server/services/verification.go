package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/mail"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// VerificationService issues six-digit email codes and checks them. Challenges
// live in process memory only; a restart voids all pending codes, which just
// means the user requests a new one.
type VerificationService struct {
	mu       sync.Mutex
	pending  map[string]*models.Challenge
	sender   mail.Sender
	validity time.Duration

	now func() time.Time
}

func NewVerificationService(sender mail.Sender, validity time.Duration) *VerificationService {
	return &VerificationService{
		pending:  make(map[string]*models.Challenge),
		sender:   sender,
		validity: validity,
		now:      time.Now,
	}
}

// Issue creates a challenge, stores it, and emails the code. The challenge
// stays pending even when delivery fails, so the caller may retry the send
// without invalidating what was already issued.
func (s *VerificationService) Issue(ctx context.Context, purpose models.ChallengePurpose, username, email, pendingPasswordHash string) (*models.Challenge, error) {
	code, err := common.MakeVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	c := &models.Challenge{
		ID:                  uuid.NewString(),
		Code:                code,
		Purpose:             purpose,
		Username:            username,
		Email:               email,
		PendingPasswordHash: pendingPasswordHash,
		IssuedAt:            s.now(),
	}

	s.mu.Lock()
	s.pending[c.ID] = c
	s.mu.Unlock()

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(s.validity.Minutes()))
	if err := s.sender.Send(ctx, email, "Day Planner verification code", body); err != nil {
		return c, err
	}

	return c, nil
}

// Verify checks the submitted code against the challenge. On success the
// challenge is consumed and returned; it cannot be verified twice. A wrong
// code fails with ErrCodeMismatch and leaves the challenge pending, an
// expired one fails with ErrCodeExpired and is dropped.
func (s *VerificationService) Verify(ctx context.Context, challengeID, code string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[challengeID]
	if !ok {
		return nil, common.ErrNotFound
	}

	if c.ExpiredAt(s.now(), s.validity) {
		delete(s.pending, challengeID)
		return nil, common.ErrCodeExpired
	}

	if c.Code != code {
		return nil, common.ErrCodeMismatch
	}

	delete(s.pending, challengeID)
	return c, nil
}

// Cancel drops a pending challenge, if it still exists. Used when the user
// abandons a flow.
func (s *VerificationService) Cancel(challengeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, challengeID)
}
