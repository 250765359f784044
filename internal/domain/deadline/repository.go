package deadline

import "context"

// Repository defines the operations for operator-defined deadlines. The
// engine only reads; creation and deletion happen through the admin command
// surface.
type Repository interface {
	Create(ctx context.Context, d *Deadline) error
	GetByID(ctx context.Context, id int64) (*Deadline, error)
	List(ctx context.Context) ([]*Deadline, error)
	Delete(ctx context.Context, id int64) error
}
