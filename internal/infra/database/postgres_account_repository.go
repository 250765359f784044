package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"qou_notification_bot/internal/domain/account"
)

var ErrAccountNotFound = fmt.Errorf("account not found")
var ErrDuplicateChatID = fmt.Errorf("account with this chat ID already exists")

const accountColumns = `chat_id, portal_id, portal_password, last_message_id, course_snapshot, average_snapshot, is_active, created_at, updated_at`

type PostgresAccountRepository struct {
	db *sql.DB
}

func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a *account.Account) error {
	query := `INSERT INTO accounts (chat_id, portal_id, portal_password, is_active)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, a.ChatID, a.PortalID, a.PortalPassword, a.IsActive).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") || strings.Contains(err.Error(), "accounts_pkey") {
			return ErrDuplicateChatID
		}
		return fmt.Errorf("error creating account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetByChatID(ctx context.Context, chatID int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE chat_id = $1`
	a := &account.Account{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&a.ChatID, &a.PortalID, &a.PortalPassword,
		&a.LastMessageID, &a.CourseSnapshot, &a.AverageSnapshot,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account by chat ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) Update(ctx context.Context, a *account.Account) error {
	query := `UPDATE accounts
               SET portal_id = $1, portal_password = $2, is_active = $3, updated_at = NOW()
               WHERE chat_id = $4
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, a.PortalID, a.PortalPassword, a.IsActive, a.ChatID).Scan(&a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrAccountNotFound
		}
		return fmt.Errorf("error updating account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) ListActive(ctx context.Context) ([]*account.Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_active = TRUE ORDER BY created_at`)
}

func (r *PostgresAccountRepository) ListAll(ctx context.Context) ([]*account.Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
}

func (r *PostgresAccountRepository) list(ctx context.Context, query string) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		a := &account.Account{}
		if err := rows.Scan(
			&a.ChatID, &a.PortalID, &a.PortalPassword,
			&a.LastMessageID, &a.CourseSnapshot, &a.AverageSnapshot,
			&a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepository) SetLastMessageID(ctx context.Context, chatID int64, messageID string) error {
	return r.setMarker(ctx, `UPDATE accounts SET last_message_id = $1, updated_at = NOW() WHERE chat_id = $2`, chatID, messageID)
}

func (r *PostgresAccountRepository) SetCourseSnapshot(ctx context.Context, chatID int64, snapshot string) error {
	return r.setMarker(ctx, `UPDATE accounts SET course_snapshot = $1, updated_at = NOW() WHERE chat_id = $2`, chatID, snapshot)
}

func (r *PostgresAccountRepository) SetAverageSnapshot(ctx context.Context, chatID int64, snapshot string) error {
	return r.setMarker(ctx, `UPDATE accounts SET average_snapshot = $1, updated_at = NOW() WHERE chat_id = $2`, chatID, snapshot)
}

func (r *PostgresAccountRepository) setMarker(ctx context.Context, query string, chatID int64, value string) error {
	res, err := r.db.ExecContext(ctx, query, value, chatID)
	if err != nil {
		return fmt.Errorf("error updating account marker: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking marker update: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
