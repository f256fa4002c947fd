package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

type TryOnRequestID string

type TryOnRequest struct {
	id           TryOnRequestID
	subjectImage *valueobjects.NormalizedImage
	garmentImage *valueobjects.NormalizedImage
	instruction  string
	parameters   *valueobjects.TryOnParameters
	createdAt    time.Time
}

func NewTryOnRequest(
	subjectImage *valueobjects.NormalizedImage,
	garmentImage *valueobjects.NormalizedImage,
	instruction string,
	parameters *valueobjects.TryOnParameters,
) (*TryOnRequest, error) {
	if subjectImage == nil {
		return nil, fmt.Errorf("subject image is required")
	}

	if garmentImage == nil {
		return nil, fmt.Errorf("garment image is required")
	}

	if instruction == "" {
		return nil, fmt.Errorf("instruction is required")
	}

	if parameters == nil {
		parameters = valueobjects.DefaultTryOnParameters()
	}

	return &TryOnRequest{
		id:           TryOnRequestID("req_" + uuid.NewString()),
		subjectImage: subjectImage,
		garmentImage: garmentImage,
		instruction:  instruction,
		parameters:   parameters,
		createdAt:    time.Now(),
	}, nil
}

func (r *TryOnRequest) ID() TryOnRequestID {
	return r.id
}

func (r *TryOnRequest) SubjectImage() *valueobjects.NormalizedImage {
	return r.subjectImage
}

func (r *TryOnRequest) GarmentImage() *valueobjects.NormalizedImage {
	return r.garmentImage
}

func (r *TryOnRequest) Instruction() string {
	return r.instruction
}

func (r *TryOnRequest) Parameters() *valueobjects.TryOnParameters {
	return r.parameters
}

func (r *TryOnRequest) CreatedAt() time.Time {
	return r.createdAt
}

// JPEGImages returns both inputs re-encoded as JPEG without touching the request.
func (r *TryOnRequest) JPEGImages() (subject, garment *valueobjects.NormalizedImage, err error) {
	subject, err = r.subjectImage.ToJPEG()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert subject image to JPEG: %w", err)
	}

	garment, err = r.garmentImage.ToJPEG()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert garment image to JPEG: %w", err)
	}

	return subject, garment, nil
}
