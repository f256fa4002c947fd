package usecases

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

const DefaultMaxImageBytes = 10 * 1024 * 1024 // 10MB

// IngestUseCase turns a user-selected file into a NormalizedImage.
type IngestUseCase struct {
	maxBytes int64
}

func NewIngestUseCase(maxBytes int64) *IngestUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &IngestUseCase{maxBytes: maxBytes}
}

// Ingest reads r to the end. Every failure is a domain ingestion error and
// nothing is returned alongside it.
func (uc *IngestUseCase) Ingest(ctx context.Context, r io.Reader, mediaType string) (*valueobjects.NormalizedImage, error) {
	if r == nil {
		return nil, domain.NewIngestionError(fmt.Errorf("no file provided"))
	}

	data, err := io.ReadAll(io.LimitReader(&contextReader{ctx: ctx, r: r}, uc.maxBytes+1))
	if err != nil {
		return nil, domain.NewIngestionError(fmt.Errorf("failed to read file: %w", err))
	}

	if int64(len(data)) > uc.maxBytes {
		return nil, domain.NewIngestionError(fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	image, err := valueobjects.NewNormalizedImage(data, mediaType)
	if err != nil {
		return nil, domain.NewIngestionError(err)
	}

	log.Debug().
		Str("format", image.Format()).
		Int("bytes", len(data)).
		Msg("image ingested")

	return image, nil
}

// contextReader stops a long read once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
