package repositories

import (
	"context"

	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
)

// TryOnGenerator is one remote generative backend. Implementations make
// exactly one outbound call per GenerateTryOn and never retry.
type TryOnGenerator interface {
	GenerateTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error)

	Close() error
}
