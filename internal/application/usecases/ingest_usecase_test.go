package usecases

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/weirdqq-coder/troyyon/internal/domain"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("disk unplugged")
}

func TestIngestUseCase_Ingest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		data       []byte
		mediaType  string
		maxBytes   int64
		wantErr    bool
		wantFormat string
		wantURI    string
	}{
		{
			name:       "jpeg file",
			data:       []byte{0xFF, 0xD8, 0xFF},
			mediaType:  "image/jpeg",
			wantFormat: "image/jpeg",
			wantURI:    "data:image/jpeg;base64,/9j/",
		},
		{
			name:       "png file with parameters",
			data:       []byte("orig-bytes-A"),
			mediaType:  "image/png; charset=binary",
			wantFormat: "image/png",
		},
		{
			name:      "empty file",
			data:      []byte{},
			mediaType: "image/png",
			wantErr:   true,
		},
		{
			name:      "non image type",
			data:      []byte("hello"),
			mediaType: "text/plain",
			wantErr:   true,
		},
		{
			name:      "over the size limit",
			data:      bytes.Repeat([]byte{1}, 11),
			mediaType: "image/png",
			maxBytes:  10,
			wantErr:   true,
		},
		{
			name:       "exactly at the size limit",
			data:       bytes.Repeat([]byte{1}, 10),
			mediaType:  "image/png",
			maxBytes:   10,
			wantFormat: "image/png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewIngestUseCase(tt.maxBytes)
			image, err := uc.Ingest(ctx, bytes.NewReader(tt.data), tt.mediaType)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Ingest() expected error, got image %v", image)
				}
				if !errors.Is(err, domain.ErrIngestion) {
					t.Errorf("Ingest() error = %v, want ingestion kind", err)
				}
				if image != nil {
					t.Errorf("Ingest() returned an image alongside the error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Ingest() unexpected error = %v", err)
			}
			if image.Format() != tt.wantFormat {
				t.Errorf("Format() = %s, want %s", image.Format(), tt.wantFormat)
			}
			if tt.wantURI != "" && image.DisplayableForm() != tt.wantURI {
				t.Errorf("DisplayableForm() = %s, want %s", image.DisplayableForm(), tt.wantURI)
			}
			if !bytes.Equal(image.Data(), tt.data) {
				t.Errorf("Data() does not match the file contents")
			}
		})
	}
}

func TestIngestUseCase_ReadFailures(t *testing.T) {
	uc := NewIngestUseCase(0)

	t.Run("nil reader", func(t *testing.T) {
		_, err := uc.Ingest(context.Background(), nil, "image/png")
		if !errors.Is(err, domain.ErrIngestion) {
			t.Errorf("error = %v, want ingestion kind", err)
		}
	})

	t.Run("reader error", func(t *testing.T) {
		_, err := uc.Ingest(context.Background(), failingReader{}, "image/png")
		if !errors.Is(err, domain.ErrIngestion) {
			t.Errorf("error = %v, want ingestion kind", err)
		}
		if !strings.Contains(err.Error(), "disk unplugged") {
			t.Errorf("error should keep the cause, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := uc.Ingest(ctx, strings.NewReader("orig-bytes-A"), "image/png")
		if !errors.Is(err, domain.ErrIngestion) {
			t.Errorf("error = %v, want ingestion kind", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error should wrap context.Canceled, got %v", err)
		}
	})
}
