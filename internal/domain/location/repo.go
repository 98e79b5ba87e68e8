package location

import (
	"context"

	"github.com/google/uuid"
)

type LGARepository interface {
	Create(ctx context.Context, l *LGA) error
	GetByID(ctx context.Context, id uuid.UUID) (*LGA, error)
	Update(ctx context.Context, l *LGA) error
	List(ctx context.Context) ([]*LGA, error)
}

type WardRepository interface {
	Create(ctx context.Context, w *Ward) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)
	Update(ctx context.Context, w *Ward) error
	List(ctx context.Context, lgaID *uuid.UUID) ([]*Ward, error)
	// NextSerial increments and returns the ward's patient serial together
	// with the ward and LGA codes. Callers run it inside the insert's tx.
	NextSerial(ctx context.Context, wardID uuid.UUID) (*Serial, error)
}

type FacilityRepository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	Update(ctx context.Context, f *Facility) error
	List(ctx context.Context, lgaID, wardID *uuid.UUID) ([]*Facility, error)
}
