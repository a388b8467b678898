package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// captureSender records sent messages instead of delivering them.
type captureSender struct {
	mu      sync.Mutex
	to      []string
	bodies  []string
	sendErr error
}

func (c *captureSender) Send(ctx context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.to = append(c.to, to)
	c.bodies = append(c.bodies, body)
	return nil
}

func TestVerification_IssueAndVerify(t *testing.T) {
	sender := &captureSender{}
	svc := NewVerificationService(sender, 5*time.Minute)
	ctx := context.Background()

	c, err := svc.Issue(ctx, models.PurposeRegister, "alice", "a@b.c", "hash")
	require.NoError(t, err)
	require.Len(t, c.Code, 6)
	require.Len(t, sender.to, 1)
	assert.Equal(t, "a@b.c", sender.to[0])
	assert.Contains(t, sender.bodies[0], c.Code)

	got, err := svc.Verify(ctx, c.ID, c.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hash", got.PendingPasswordHash)

	// Consumed, a second attempt finds nothing.
	_, err = svc.Verify(ctx, c.ID, c.Code)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVerification_WrongCodeLeavesChallengePending(t *testing.T) {
	svc := NewVerificationService(&captureSender{}, 5*time.Minute)
	ctx := context.Background()

	c, err := svc.Issue(ctx, models.PurposeRegister, "alice", "a@b.c", "hash")
	require.NoError(t, err)

	wrong := "000000"
	if c.Code == wrong {
		wrong = "000001"
	}
	_, err = svc.Verify(ctx, c.ID, wrong)
	assert.ErrorIs(t, err, common.ErrCodeMismatch)

	_, err = svc.Verify(ctx, c.ID, c.Code)
	assert.NoError(t, err)
}

func TestVerification_Expiry(t *testing.T) {
	svc := NewVerificationService(&captureSender{}, 5*time.Minute)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	c, err := svc.Issue(ctx, models.PurposeReset, "alice", "a@b.c", "hash")
	require.NoError(t, err)

	// Exactly at the limit the code is still good.
	svc.now = func() time.Time { return now.Add(5 * time.Minute) }
	wrong := "999999"
	if c.Code == wrong {
		wrong = "999998"
	}
	_, err = svc.Verify(ctx, c.ID, wrong)
	assert.ErrorIs(t, err, common.ErrCodeMismatch)

	// One second past, the challenge is gone for good.
	svc.now = func() time.Time { return now.Add(5*time.Minute + time.Second) }
	_, err = svc.Verify(ctx, c.ID, c.Code)
	assert.ErrorIs(t, err, common.ErrCodeExpired)

	_, err = svc.Verify(ctx, c.ID, c.Code)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVerification_SendFailureKeepsChallenge(t *testing.T) {
	sender := &captureSender{sendErr: fmt.Errorf("%w: relay down", common.ErrTransportFailure)}
	svc := NewVerificationService(sender, 5*time.Minute)
	ctx := context.Background()

	c, err := svc.Issue(ctx, models.PurposeRegister, "alice", "a@b.c", "hash")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTransportFailure))
	require.NotNil(t, c)

	// The code that failed to send still verifies.
	got, err := svc.Verify(ctx, c.ID, c.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestVerification_Cancel(t *testing.T) {
	svc := NewVerificationService(&captureSender{}, 5*time.Minute)
	ctx := context.Background()

	c, err := svc.Issue(ctx, models.PurposeRegister, "alice", "a@b.c", "hash")
	require.NoError(t, err)

	svc.Cancel(c.ID)

	_, err = svc.Verify(ctx, c.ID, c.Code)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
