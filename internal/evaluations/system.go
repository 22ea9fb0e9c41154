package evaluations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/pkg/pagination"
)

// System defines the public contract for evaluation records.
type System interface {
	Handler() *Handler

	Record(ctx context.Context, cmd RecordCommand) (*Evaluation, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Evaluation], error)
	Find(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
