package database

import (
	"context"
	"database/sql"
	"fmt"

	"qou_notification_bot/internal/domain/deadline"
)

var ErrDeadlineNotFound = fmt.Errorf("deadline not found")

type PostgresDeadlineRepository struct {
	db *sql.DB
}

func NewPostgresDeadlineRepository(db *sql.DB) *PostgresDeadlineRepository {
	return &PostgresDeadlineRepository{db: db}
}

func (r *PostgresDeadlineRepository) Create(ctx context.Context, d *deadline.Deadline) error {
	query := `INSERT INTO deadlines (name, date) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, d.Name, d.Date).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating deadline: %w", err)
	}
	return nil
}

func (r *PostgresDeadlineRepository) GetByID(ctx context.Context, id int64) (*deadline.Deadline, error) {
	query := `SELECT id, name, date, created_at FROM deadlines WHERE id = $1`
	d := &deadline.Deadline{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.Date, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("error getting deadline by ID: %w", err)
	}
	return d, nil
}

func (r *PostgresDeadlineRepository) List(ctx context.Context) ([]*deadline.Deadline, error) {
	query := `SELECT id, name, date, created_at FROM deadlines ORDER BY date, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing deadlines: %w", err)
	}
	defer rows.Close()

	deadlines := make([]*deadline.Deadline, 0)
	for rows.Next() {
		d := &deadline.Deadline{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Date, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *PostgresDeadlineRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deadlines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting deadline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deadline delete: %w", err)
	}
	if affected == 0 {
		return ErrDeadlineNotFound
	}
	return nil
}
