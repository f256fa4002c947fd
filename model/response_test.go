package model

import (
	"testing"
)

const onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChAI9jz22jQAAAABJRU5ErkJggg=="

func TestParseVirtualTryOnResponse(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantErr      bool
		wantCount    int
		wantMimeType string
		wantFiltered string
	}{
		{
			name:         "single image",
			body:         `{"predictions":[{"mimeType":"image/png","bytesBase64Encoded":"` + onePixelPNG + `"}]}`,
			wantCount:    1,
			wantMimeType: "image/png",
		},
		{
			name:         "filtered prediction",
			body:         `{"predictions":[{"raiFilteredReason":"Your current safety filter threshold filtered out the generated image."}]}`,
			wantCount:    1,
			wantFiltered: "Your current safety filter threshold filtered out the generated image.",
		},
		{
			name:      "no predictions",
			body:      `{}`,
			wantCount: 0,
		},
		{
			name:    "not json",
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := ParseVirtualTryOnResponse([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVirtualTryOnResponse() error = %v", err)
			}
			if len(response.Predictions) != tt.wantCount {
				t.Fatalf("got %d predictions, want %d", len(response.Predictions), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			first := response.Predictions[0]
			if first.MimeType != tt.wantMimeType {
				t.Errorf("MimeType = %q, want %q", first.MimeType, tt.wantMimeType)
			}
			if first.RaiFilteredReason != tt.wantFiltered {
				t.Errorf("RaiFilteredReason = %q, want %q", first.RaiFilteredReason, tt.wantFiltered)
			}
		})
	}
}
