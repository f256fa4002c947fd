package repositories

import (
	"context"
	"errors"

	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
)

var ErrNotFound = errors.New("not found")

// TryOnRecord is what the history keeps about one generation; image payloads
// are summarised, not stored.
type TryOnRecord struct {
	RequestID     entities.TryOnRequestID `json:"requestId"`
	SubjectFormat string                  `json:"subjectFormat"`
	GarmentFormat string                  `json:"garmentFormat"`
	Status        string                  `json:"status"`
	ResultFormat  string                  `json:"resultFormat,omitempty"`
	ResultBytes   int                     `json:"resultBytes,omitempty"`
	ModelText     string                  `json:"modelText,omitempty"`
	Error         string                  `json:"error,omitempty"`
	CreatedAt     int64                   `json:"createdAt"`
	SettledAt     int64                   `json:"settledAt,omitempty"`
}

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type TryOnRepository interface {
	Save(ctx context.Context, request *entities.TryOnRequest) error
	FindByID(ctx context.Context, id entities.TryOnRequestID) (*TryOnRecord, error)
	SaveResult(ctx context.Context, result *entities.TryOnResult) error
	SaveFailure(ctx context.Context, id entities.TryOnRequestID, reason string) error
}
