package external

import (
	"testing"

	"github.com/weirdqq-coder/troyyon/internal/config"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/services"
)

func TestNewTryOnGenerator(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, gen any)
	}{
		{
			name:    "gemini",
			backend: config.BackendGemini,
			check: func(t *testing.T, gen any) {
				if _, ok := gen.(*GeminiTryOnService); !ok {
					t.Errorf("got %T, want *GeminiTryOnService", gen)
				}
			},
		},
		{
			name:    "unknown falls back to gemini",
			backend: "other",
			check: func(t *testing.T, gen any) {
				if _, ok := gen.(*GeminiTryOnService); !ok {
					t.Errorf("got %T, want *GeminiTryOnService", gen)
				}
			},
		},
		{
			name:    "vertex",
			backend: config.BackendVertex,
			check: func(t *testing.T, gen any) {
				svc, ok := gen.(*VertexAIService)
				if !ok {
					t.Fatalf("got %T, want *VertexAIService", gen)
				}
				if svc.opts.Model != "vto-test" || svc.opts.BaseURL != "https://us-east1-aiplatform.googleapis.com" {
					t.Errorf("unexpected options %+v", svc.opts)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				Backend:      tt.backend,
				GeminiAPIKey: "key",
				GeminiModel:  DefaultGeminiModel,
				ProjectID:    "proj",
				Location:     "us-east1",
				VTOModel:     "vto-test",
			}
			pools := services.NewClientPoolService(NewClientConfig(cfg))
			defer pools.Close()

			tt.check(t, NewTryOnGenerator(cfg, pools))
		})
	}
}

func TestNewClientConfig(t *testing.T) {
	cfg := config.Config{
		ProjectID:     "proj",
		Location:      "loc",
		GeminiAPIKey:  "key",
		GeminiBaseURL: "http://localhost:1234",
	}
	got := NewClientConfig(cfg)
	if got.ProjectID != "proj" || got.Location != "loc" || got.GeminiAPIKey != "key" || got.GeminiBaseURL != "http://localhost:1234" {
		t.Errorf("NewClientConfig() = %+v", got)
	}
}
