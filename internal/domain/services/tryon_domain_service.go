package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
)

// TryOnInstruction is sent with every request, subject image first and garment second.
const TryOnInstruction = `You are a virtual fitting room. The first image shows a person, the second image shows a garment. ` +
	`Generate a single photorealistic image of the same person wearing the garment. ` +
	`Keep the person's face, identity, hair, body shape, pose and the original background unchanged. ` +
	`Fit the garment naturally to the body with realistic folds, lighting and shadows, and remove the clothing it replaces. ` +
	`Return only the edited image.`

type TryOnDomainService struct {
	generator repositories.TryOnGenerator
	timeout   time.Duration
}

// NewTryOnDomainService wraps generator; a zero timeout leaves the call unbounded.
func NewTryOnDomainService(generator repositories.TryOnGenerator, timeout time.Duration) *TryOnDomainService {
	return &TryOnDomainService{
		generator: generator,
		timeout:   timeout,
	}
}

// ProcessTryOn submits the request once. Every error it returns is a *domain.Error.
func (s *TryOnDomainService) ProcessTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	if err := s.validateRequest(request); err != nil {
		return nil, domain.NewPreconditionError()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.generator.GenerateTryOn(ctx, request)
	if err != nil {
		classified := ClassifyError(err)
		log.Warn().
			Err(err).
			Str("request_id", string(request.ID())).
			Str("kind", string(domain.KindOf(classified))).
			Dur("elapsed", time.Since(started)).
			Msg("try-on generation failed")
		return nil, classified
	}

	if result == nil || !result.HasImage() {
		text := ""
		if result != nil {
			text = result.Text()
		}
		return nil, domain.NewNoResultError(text, nil)
	}

	log.Info().
		Str("request_id", string(request.ID())).
		Str("format", result.Image().Format()).
		Int("bytes", len(result.Image().Data())).
		Dur("elapsed", time.Since(started)).
		Msg("try-on generation succeeded")

	return result, nil
}

func (s *TryOnDomainService) validateRequest(request *entities.TryOnRequest) error {
	if request == nil {
		return fmt.Errorf("request is required")
	}

	if request.SubjectImage() == nil {
		return fmt.Errorf("subject image is required")
	}

	if request.GarmentImage() == nil {
		return fmt.Errorf("garment image is required")
	}

	return nil
}

// ClassifyError maps a backend failure onto the domain taxonomy. Errors that
// are already classified pass through untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransportError(err)
	}

	if isQuotaError(err) {
		return domain.NewRemoteError(domain.QuotaMessage, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransportError(err)
	}

	return domain.NewRemoteError("", fmt.Errorf("try-on generation failed: %w", err))
}

func isQuotaError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "resourceexhausted") ||
		strings.Contains(errStr, "resource_exhausted")
}
