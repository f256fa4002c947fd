package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

const DefaultGeminiModel = "gemini-2.5-flash-image"

// GeminiTryOnService sends both images and the instruction to an image-capable
// Gemini model in a single GenerateContent call.
type GeminiTryOnService struct {
	pool  repositories.GenAIClientPool
	model string
}

func NewGeminiTryOnService(pool repositories.GenAIClientPool, model string) *GeminiTryOnService {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiTryOnService{pool: pool, model: model}
}

func (s *GeminiTryOnService) GenerateTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	client, err := s.pool.GetGenAIClient(ctx)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	subject := request.SubjectImage()
	garment := request.GarmentImage()

	log.Debug().
		Str("model", s.model).
		Str("subject_format", subject.Format()).
		Str("garment_format", garment.Format()).
		Msg("sending try-on request to Gemini")

	parts := []*genai.Part{
		genai.NewPartFromText(request.Instruction()),
		{InlineData: &genai.Blob{MIMEType: subject.Format(), Data: subject.Data()}},
		{InlineData: &genai.Blob{MIMEType: garment.Format(), Data: garment.Data()}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if params := request.Parameters(); params != nil && params.Seed() > 0 {
		seed := int32(params.Seed())
		config.Seed = &seed
	}

	// Multiple candidates are not supported by the image models, so one call
	// yields at most one image.
	resp, err := client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, classifyGenAIError(err)
	}

	return extractTryOnResult(request.ID(), resp)
}

func (s *GeminiTryOnService) Close() error {
	return s.pool.Close()
}

// extractTryOnResult keeps the first inline image and joins all text parts.
// A response without an image is a no-result failure carrying the text.
func extractTryOnResult(requestID entities.TryOnRequestID, resp *genai.GenerateContentResponse) (*entities.TryOnResult, error) {
	if resp == nil {
		return nil, domain.NewNoResultError("", nil)
	}

	var texts []string
	var image *valueobjects.NormalizedImage

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" && !part.Thought {
				texts = append(texts, part.Text)
			}
			if image == nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				img, err := valueobjects.NewNormalizedImage(part.InlineData.Data, part.InlineData.MIMEType)
				if err != nil {
					log.Warn().Err(err).Str("mime_type", part.InlineData.MIMEType).Msg("skipping unusable inline data")
					continue
				}
				image = img
			}
		}
	}

	text := strings.TrimSpace(strings.Join(texts, "\n"))

	if image == nil {
		reason := text
		if reason == "" {
			reason = blockReason(resp)
		}
		log.Warn().Str("request_id", string(requestID)).Str("reason", reason).Msg("no image data in Gemini response")
		return nil, domain.NewNoResultError(reason, nil)
	}

	return entities.NewTryOnResult(requestID, image, text), nil
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		if fb.BlockReasonMessage != "" {
			return fmt.Sprintf("%s: %s", fb.BlockReason, fb.BlockReasonMessage)
		}
		return string(fb.BlockReason)
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
			return "finish reason " + string(candidate.FinishReason)
		}
	}
	return ""
}

// classifyGenAIError maps SDK failures onto the domain taxonomy. An APIError
// means the service answered, so it is remote; anything else failed on the way.
func classifyGenAIError(err error) error {
	if apiErr, ok := asAPIError(err); ok {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return domain.NewRemoteError(domain.QuotaMessage, err)
		}
		return domain.NewRemoteErrorWithDetail(apiErr.Message, fmt.Errorf("gemini returned %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message))
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransportError(err)
	}

	return domain.NewTransportError(fmt.Errorf("failed to generate content: %w", err))
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

var _ repositories.TryOnGenerator = (*GeminiTryOnService)(nil)
