package app

import (
	"context"
	"fmt"
	"time"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/deadline"
	idb "qou_notification_bot/internal/infra/database"
)

var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// AdminService covers the operator-facing operations: deadline management
// and account administration. Every method re-checks the performing user so
// the service stays safe even if a handler forgets the gate.
type AdminService struct {
	accounts        account.Repository
	deadlines       deadline.Repository
	adminTelegramID int64
}

func NewAdminService(accounts account.Repository, deadlines deadline.Repository, adminID int64) *AdminService {
	return &AdminService{
		accounts:        accounts,
		deadlines:       deadlines,
		adminTelegramID: adminID,
	}
}

// AddDeadline creates a new operator deadline. The caller is expected to
// follow up with DeadlineService.NotifyNewDeadline.
func (s *AdminService) AddDeadline(ctx context.Context, performingID int64, name string, date time.Time) (*deadline.Deadline, error) {
	if performingID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	d := &deadline.Deadline{Name: name, Date: date}
	if err := s.deadlines.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}
	return d, nil
}

func (s *AdminService) ListDeadlines(ctx context.Context, performingID int64) ([]*deadline.Deadline, error) {
	if performingID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.deadlines.List(ctx)
}

func (s *AdminService) RemoveDeadline(ctx context.Context, performingID int64, id int64) error {
	if performingID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	if err := s.deadlines.Delete(ctx, id); err != nil {
		if err == idb.ErrDeadlineNotFound {
			return idb.ErrDeadlineNotFound
		}
		return fmt.Errorf("failed to delete deadline: %w", err)
	}
	return nil
}

// DeactivateAccount is the operator-side counterpart of /stop.
func (s *AdminService) DeactivateAccount(ctx context.Context, performingID, chatID int64) (*account.Account, error) {
	if performingID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	acc, err := s.accounts.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
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

func (s *AdminService) ListAccounts(ctx context.Context, performingID int64) ([]*account.Account, error) {
	if performingID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.accounts.ListAll(ctx)
}
