package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
	"github.com/weirdqq-coder/troyyon/model"
)

const (
	DefaultVTOModel    = "virtual-try-on-preview-08-04"
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

type VertexOptions struct {
	ProjectID string
	Location  string
	Model     string
	UseSDK    bool
	// BaseURL replaces https://{location}-aiplatform.googleapis.com for the REST path.
	BaseURL     string
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
}

// VertexAIService calls the Virtual Try-On model on Vertex AI, either through
// the REST predict endpoint or through the Vertex SDK.
type VertexAIService struct {
	opts VertexOptions
	pool repositories.VertexAIClientPool
}

func NewVertexAIService(pool repositories.VertexAIClientPool, opts VertexOptions) *VertexAIService {
	if opts.Model == "" {
		opts.Model = DefaultVTOModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", opts.Location)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 300 * time.Second}
	}
	return &VertexAIService{opts: opts, pool: pool}
}

func (s *VertexAIService) GenerateTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	if s.opts.UseSDK {
		return s.generateWithSDK(ctx, request)
	}
	return s.generateWithREST(ctx, request)
}

func (s *VertexAIService) generateWithSDK(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	// the SDK path only accepts JPEG input; the images were already accepted at
	// ingestion, so a conversion failure here is a failed request
	subject, garment, err := request.JPEGImages()
	if err != nil {
		return nil, domain.NewRemoteError("", err)
	}

	client, err := s.pool.GetVertexAIClient(ctx)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	gm := client.GenerativeModel(s.opts.Model)
	gm.SetTemperature(0.4)
	gm.SetTopK(32)
	gm.SetTopP(1)
	gm.SetMaxOutputTokens(2048)
	gm.ResponseMIMEType = "image/jpeg"

	resp, err := gm.GenerateContent(ctx,
		genai.Text(request.Instruction()),
		genai.Text("person:"),
		genai.ImageData("jpeg", subject.Data()),
		genai.Text("garment:"),
		genai.ImageData("jpeg", garment.Data()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	var texts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Blob:
				img, err := valueobjects.NewNormalizedImage(p.Data, p.MIMEType)
				if err != nil {
					log.Warn().Err(err).Str("mime_type", p.MIMEType).Msg("skipping unusable blob")
					continue
				}
				return entities.NewTryOnResult(request.ID(), img, strings.Join(texts, "\n")), nil
			case genai.Text:
				texts = append(texts, string(p))
			}
		}
	}

	return nil, domain.NewNoResultError(strings.Join(texts, "\n"), nil)
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters map[string]any    `json:"parameters"`
}

type predictInstance struct {
	PersonImage   predictImage   `json:"personImage"`
	ProductImages []predictImage `json:"productImages"`
}

type predictImage struct {
	Image struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"image"`
}

func newPredictImage(img *valueobjects.NormalizedImage) predictImage {
	var p predictImage
	p.Image.BytesBase64Encoded = img.EncodedData()
	return p
}

// buildPredictParameters only sends the optional fields the API accepts in
// combination: compression quality for JPEG, and a seed without watermark.
func buildPredictParameters(params *valueobjects.TryOnParameters) map[string]any {
	if params == nil {
		params = valueobjects.DefaultTryOnParameters()
	}

	outputOptions := map[string]any{
		"mimeType": string(params.OutputMimeType()),
	}
	if params.CompressionQuality() > 0 && params.OutputMimeType() == valueobjects.MimeTypeJPEG {
		outputOptions["compressionQuality"] = params.CompressionQuality()
	}

	parameters := map[string]any{
		"addWatermark":     params.AddWatermark(),
		"baseSteps":        params.BaseSteps(),
		"personGeneration": string(params.PersonGeneration()),
		"safetySetting":    string(params.SafetySetting()),
		"sampleCount":      1,
		"outputOptions":    outputOptions,
	}
	if !params.AddWatermark() && params.Seed() > 0 {
		parameters["seed"] = params.Seed()
	}
	return parameters
}

func (s *VertexAIService) generateWithREST(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	accessToken, err := s.getAccessToken(ctx)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to get access token: %w", err))
	}

	apiRequest := predictRequest{
		Instances: []predictInstance{{
			PersonImage:   newPredictImage(request.SubjectImage()),
			ProductImages: []predictImage{newPredictImage(request.GarmentImage())},
		}},
		Parameters: buildPredictParameters(request.Parameters()),
	}

	reqBody, err := json.Marshal(apiRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Debug().
		Str("model", s.opts.Model).
		Interface("parameters", apiRequest.Parameters).
		Msg("sending predict request to Vertex AI")

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		s.opts.BaseURL, s.opts.ProjectID, s.opts.Location, s.opts.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, remoteStatusError(resp.StatusCode, respBody)
	}

	predResp, err := model.ParseVirtualTryOnResponse(respBody)
	if err != nil {
		return nil, domain.NewRemoteError("", fmt.Errorf("failed to parse response: %w", err))
	}

	var filtered []string
	for _, prediction := range predResp.Predictions {
		if prediction.RaiFilteredReason != "" {
			filtered = append(filtered, prediction.RaiFilteredReason)
		}
		if prediction.BytesBase64Encoded == "" {
			continue
		}

		img, err := valueobjects.NewNormalizedImageFromBase64(prediction.BytesBase64Encoded, prediction.MimeType)
		if err != nil {
			log.Warn().Err(err).Msg("skipping undecodable prediction")
			continue
		}
		return entities.NewTryOnResult(request.ID(), img, ""), nil
	}

	return nil, domain.NewNoResultError(strings.Join(filtered, "; "), nil)
}

// remoteStatusError turns a non-200 predict response into a remote error,
// using the Google error envelope when the body carries one.
func remoteStatusError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		detail = envelope.Error.Message
	}
	if len(detail) > 300 {
		detail = detail[:300]
	}

	cause := fmt.Errorf("vertex returned %d: %s", status, detail)
	if status == http.StatusTooManyRequests || envelope.Error.Status == "RESOURCE_EXHAUSTED" {
		return domain.NewRemoteError(domain.QuotaMessage, cause)
	}
	return domain.NewRemoteErrorWithDetail(detail, cause)
}

func (s *VertexAIService) getAccessToken(ctx context.Context) (string, error) {
	ts := s.opts.TokenSource
	if ts == nil {
		creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
		if err != nil {
			return "", fmt.Errorf("failed to find default credentials: %w", err)
		}
		ts = creds.TokenSource
	}

	token, err := ts.Token()
	if err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return token.AccessToken, nil
}

func (s *VertexAIService) Close() error {
	if s.pool != nil {
		return s.pool.Close()
	}
	return nil
}

var _ repositories.TryOnGenerator = (*VertexAIService)(nil)
