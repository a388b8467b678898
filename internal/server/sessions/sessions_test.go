package sessions

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateStartsAnonymous(t *testing.T) {
	st := NewStore(time.Hour)

	sess := st.Create()
	require.NotEmpty(t, sess.ID)
	require.Equal(t, StateAnonymous, sess.State)

	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
}

func TestStore_Get_UnknownID(t *testing.T) {
	st := NewStore(time.Hour)

	_, err := st.Get("nope")
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestStore_Get_Expired(t *testing.T) {
	st := NewStore(time.Minute)

	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	sess := st.Create()

	now = now.Add(2 * time.Minute)
	_, err := st.Get(sess.ID)
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestStore_Transition_AllowedPath(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	got, err := st.Transition(sess.ID, StateAwaitingEmailVerification, func(s *Session) {
		s.ChallengeID = "ch-1"
	})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingEmailVerification, got.State)
	require.Equal(t, "ch-1", got.ChallengeID)

	got, err = st.Transition(sess.ID, StateAuthenticated, func(s *Session) {
		s.Username = "alice"
		s.ChallengeID = ""
	})
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, got.State)
	require.Equal(t, "alice", got.Username)
}

func TestStore_Transition_RegistrationResend(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	_, err := st.Transition(sess.ID, StateAwaitingEmailVerification, func(s *Session) {
		s.ChallengeID = "ch-1"
	})
	require.NoError(t, err)

	// Resubmitting the form re-enters the same state and must swap in the
	// freshly issued challenge, or the new code could never match.
	got, err := st.Transition(sess.ID, StateAwaitingEmailVerification, func(s *Session) {
		s.ChallengeID = "ch-2"
	})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingEmailVerification, got.State)
	require.Equal(t, "ch-2", got.ChallengeID)
}

func TestStore_Transition_RejectsInvalidMove(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	// Anonymous cannot jump straight to reset verification.
	_, err := st.Transition(sess.ID, StateAwaitingResetVerification, nil)
	require.ErrorIs(t, err, common.ErrInvalidTransition)

	// Failed transition leaves the state unchanged.
	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	require.Equal(t, StateAnonymous, got.State)
}

func TestStore_Transition_MutuallyExclusiveFlows(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	_, err := st.Transition(sess.ID, StateAwaitingResetRequest, nil)
	require.NoError(t, err)

	// A session in the reset flow cannot simultaneously enter registration.
	_, err = st.Transition(sess.ID, StateAwaitingEmailVerification, nil)
	require.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	st.Delete(sess.ID)

	_, err := st.Get(sess.ID)
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestStore_LogoutPath(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create()

	_, err := st.Transition(sess.ID, StateAuthenticated, func(s *Session) { s.Username = "bob" })
	require.NoError(t, err)

	got, err := st.Transition(sess.ID, StateAnonymous, func(s *Session) { s.Username = "" })
	require.NoError(t, err)
	require.Equal(t, StateAnonymous, got.State)
	require.Empty(t, got.Username)
}
