package app

import (
	"context"
	"database/sql"
	"testing"

	idb "qou_notification_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceRegister(t *testing.T) {
	repo := newFakeAccountRepo()
	p := newFakePortal()

	s := NewAccountService(repo, p)
	acc, err := s.Register(context.Background(), 1, "s001", "secret")
	require.NoError(t, err)
	assert.True(t, acc.IsActive)
	assert.Equal(t, "s001", acc.PortalID)

	stored, err := repo.GetByChatID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestAccountServiceRegisterRejectsBadCredentials(t *testing.T) {
	repo := newFakeAccountRepo()
	p := newFakePortal()
	p.failUsers["s001"] = true

	s := NewAccountService(repo, p)
	_, err := s.Register(context.Background(), 1, "s001", "wrong")
	assert.ErrorIs(t, err, ErrBadPortalCredentials)

	_, err = repo.GetByChatID(context.Background(), 1)
	assert.ErrorIs(t, err, idb.ErrAccountNotFound, "rejected registration must not persist")
}

func TestAccountServiceRegisterRejectsActiveDuplicate(t *testing.T) {
	repo := newFakeAccountRepo(testAccount(1, "s001"))
	s := NewAccountService(repo, newFakePortal())

	_, err := s.Register(context.Background(), 1, "s002", "secret")
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)
}

func TestAccountServiceRegisterReactivatesInactiveChat(t *testing.T) {
	acc := testAccount(1, "s001")
	acc.IsActive = false
	acc.LastMessageID = sql.NullString{String: "42", Valid: true}
	repo := newFakeAccountRepo(acc)

	s := NewAccountService(repo, newFakePortal())
	got, err := s.Register(context.Background(), 1, "s009", "newpass")
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, "s009", got.PortalID)
}

func TestAccountServiceDeactivate(t *testing.T) {
	acc := testAccount(1, "s001")
	repo := newFakeAccountRepo(acc)
	s := NewAccountService(repo, newFakePortal())

	got, err := s.Deactivate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = s.Deactivate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAccountAlreadyInactive)

	_, err = s.Deactivate(context.Background(), 99)
	assert.ErrorIs(t, err, idb.ErrAccountNotFound)
}

// Deactivated accounts must drop out of every watcher pass.
func TestDeactivatedAccountReceivesNothing(t *testing.T) {
	acc := testAccount(1, "s001")
	acc.IsActive = false
	repo := newFakeAccountRepo(acc)
	p := newFakePortal()
	sink := newFakeSink()

	accounts, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	w := newTestCourseWatcher(repo, p, sink)
	w.Pass(context.Background())
	assert.Zero(t, p.logins, "inactive account is never polled")
}
