package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

type TryOnResultID string

type TryOnResult struct {
	id        TryOnResultID
	requestID TryOnRequestID
	image     *valueobjects.NormalizedImage
	text      string
	createdAt time.Time
}

func NewTryOnResult(requestID TryOnRequestID, image *valueobjects.NormalizedImage, text string) *TryOnResult {
	return &TryOnResult{
		id:        TryOnResultID("result_" + uuid.NewString()),
		requestID: requestID,
		image:     image,
		text:      text,
		createdAt: time.Now(),
	}
}

func (r *TryOnResult) ID() TryOnResultID {
	return r.id
}

func (r *TryOnResult) RequestID() TryOnRequestID {
	return r.requestID
}

func (r *TryOnResult) Image() *valueobjects.NormalizedImage {
	return r.image
}

// Text is whatever commentary the model sent alongside (or instead of) the image.
func (r *TryOnResult) Text() string {
	return r.text
}

func (r *TryOnResult) CreatedAt() time.Time {
	return r.createdAt
}

func (r *TryOnResult) HasImage() bool {
	return r.image != nil
}
