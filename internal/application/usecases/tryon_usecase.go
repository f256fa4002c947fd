package usecases

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	"github.com/weirdqq-coder/troyyon/internal/domain/services"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

type TryOnUseCase struct {
	tryOnRepo     repositories.TryOnRepository
	domainService *services.TryOnDomainService
}

func NewTryOnUseCase(
	tryOnRepo repositories.TryOnRepository,
	domainService *services.TryOnDomainService,
) *TryOnUseCase {
	return &TryOnUseCase{
		tryOnRepo:     tryOnRepo,
		domainService: domainService,
	}
}

type TryOnInput struct {
	Subject    *valueobjects.NormalizedImage
	Garment    *valueobjects.NormalizedImage
	Parameters *TryOnParametersInput
}

type TryOnParametersInput struct {
	AddWatermark       bool
	BaseSteps          int
	PersonGeneration   string
	SafetySetting      string
	Seed               int
	OutputMimeType     string
	CompressionQuality int
}

type TryOnOutput struct {
	RequestID entities.TryOnRequestID
	Image     *valueobjects.NormalizedImage
	Text      string
}

// Execute makes one generation attempt. History writes are best effort and
// never change the outcome.
func (uc *TryOnUseCase) Execute(ctx context.Context, input TryOnInput) (*TryOnOutput, error) {
	if input.Subject == nil || input.Garment == nil {
		return nil, domain.NewPreconditionError()
	}

	parameters, err := uc.convertParameters(input.Parameters)
	if err != nil {
		return nil, &domain.Error{
			Kind:    domain.KindPrecondition,
			Message: fmt.Sprintf("Invalid generation parameters: %v", err),
			Err:     err,
		}
	}

	request, err := entities.NewTryOnRequest(input.Subject, input.Garment, services.TryOnInstruction, parameters)
	if err != nil {
		return nil, domain.NewPreconditionError()
	}

	if err := uc.tryOnRepo.Save(ctx, request); err != nil {
		log.Warn().Err(err).Str("request_id", string(request.ID())).Msg("failed to save try-on request")
	}

	result, err := uc.domainService.ProcessTryOn(ctx, request)
	if err != nil {
		if saveErr := uc.tryOnRepo.SaveFailure(ctx, request.ID(), domain.Message(err)); saveErr != nil {
			log.Warn().Err(saveErr).Str("request_id", string(request.ID())).Msg("failed to save try-on failure")
		}
		return nil, err
	}

	if err := uc.tryOnRepo.SaveResult(ctx, result); err != nil {
		log.Warn().Err(err).Str("request_id", string(request.ID())).Msg("failed to save try-on result")
	}

	return &TryOnOutput{
		RequestID: request.ID(),
		Image:     result.Image(),
		Text:      result.Text(),
	}, nil
}

// History returns the stored record for a request id.
func (uc *TryOnUseCase) History(ctx context.Context, id entities.TryOnRequestID) (*repositories.TryOnRecord, error) {
	return uc.tryOnRepo.FindByID(ctx, id)
}

func (uc *TryOnUseCase) convertParameters(input *TryOnParametersInput) (*valueobjects.TryOnParameters, error) {
	if input == nil {
		return valueobjects.DefaultTryOnParameters(), nil
	}

	return valueobjects.NewTryOnParameters(
		input.AddWatermark,
		input.BaseSteps,
		valueobjects.PersonGeneration(input.PersonGeneration),
		valueobjects.SafetySetting(input.SafetySetting),
		input.Seed,
		valueobjects.MimeType(input.OutputMimeType),
		input.CompressionQuality,
	)
}
