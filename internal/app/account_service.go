package app

import (
	"context"
	"fmt"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/portal"
	idb "qou_notification_bot/internal/infra/database"
)

var ErrAccountAlreadyExists = fmt.Errorf("an account is already registered for this chat")
var ErrAccountAlreadyInactive = fmt.Errorf("account is already inactive")
var ErrBadPortalCredentials = fmt.Errorf("portal rejected the credentials")

// AccountService handles self-registration and deactivation. Credentials are
// verified against the portal before an account is stored, so the watchers
// never loop over logins known to be dead.
type AccountService struct {
	accounts account.Repository
	portal   portal.Client
}

func NewAccountService(accounts account.Repository, portalClient portal.Client) *AccountService {
	return &AccountService{accounts: accounts, portal: portalClient}
}

// Register verifies the credentials and creates an active account bound to
// the chat. Re-registering an existing chat is rejected; the account must be
// removed first.
func (s *AccountService) Register(ctx context.Context, chatID int64, portalID, password string) (*account.Account, error) {
	existing, err := s.accounts.GetByChatID(ctx, chatID)
	if err == nil && existing != nil {
		if existing.IsActive {
			return nil, ErrAccountAlreadyExists
		}
		// A previously deactivated chat re-registers in place, keeping
		// its markers out of date on purpose: the message watcher will
		// re-announce the newest mail, as a fresh registration expects.
		existing.PortalID = portalID
		existing.PortalPassword = password
		existing.IsActive = true
		if _, err := s.portal.Login(ctx, portal.Credentials{UserID: portalID, Password: password}); err != nil {
			return nil, ErrBadPortalCredentials
		}
		if err := s.accounts.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate account: %w", err)
		}
		return existing, nil
	}
	if err != idb.ErrAccountNotFound {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	if _, err := s.portal.Login(ctx, portal.Credentials{UserID: portalID, Password: password}); err != nil {
		return nil, ErrBadPortalCredentials
	}

	acc := &account.Account{
		ChatID:         chatID,
		PortalID:       portalID,
		PortalPassword: password,
		IsActive:       true,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if err == idb.ErrDuplicateChatID {
			return nil, ErrAccountAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

// Deactivate stops all notifications for the chat. The row and its markers
// stay; the engine never deletes accounts.
func (s *AccountService) Deactivate(ctx context.Context, chatID int64) (*account.Account, error) {
	acc, err := s.accounts.GetByChatID(ctx, chatID)
	if err != nil {
		if err == idb.ErrAccountNotFound {
			return nil, idb.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account for deactivation: %w", err)
	}
	if !acc.IsActive {
		return acc, ErrAccountAlreadyInactive
	}

	acc.IsActive = false
	if err := s.accounts.Update(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to deactivate account: %w", err)
	}
	return acc, nil
}
