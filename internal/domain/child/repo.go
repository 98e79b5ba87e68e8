package child

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error)
	Each(ctx context.Context, f Filter, fn func(*Record) error) error
}

type NutritionRepository interface {
	Create(ctx context.Context, e *NutritionLogEntry) error
	ListByChild(ctx context.Context, childID uuid.UUID) ([]*NutritionLogEntry, error)
	// Latest returns the most recent entry per child for children matching f.
	Latest(ctx context.Context, f Filter) (map[uuid.UUID]*NutritionLogEntry, error)
}
