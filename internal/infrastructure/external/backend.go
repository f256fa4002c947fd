package external

import (
	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/config"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
)

// NewTryOnGenerator picks the backend named by cfg.Backend. Anything other
// than "vertex" gets the Gemini image model.
func NewTryOnGenerator(cfg config.Config, pools repositories.ClientPoolService) repositories.TryOnGenerator {
	if cfg.Backend == config.BackendVertex {
		log.Info().
			Str("model", cfg.VTOModel).
			Str("project", cfg.ProjectID).
			Str("location", cfg.Location).
			Bool("sdk", cfg.UseSDK).
			Msg("using Vertex AI virtual try-on backend")
		return NewVertexAIService(pools.VertexAIPool(), VertexOptions{
			ProjectID: cfg.ProjectID,
			Location:  cfg.Location,
			Model:     cfg.VTOModel,
			UseSDK:    cfg.UseSDK,
		})
	}

	log.Info().Str("model", cfg.GeminiModel).Msg("using Gemini image backend")
	return NewGeminiTryOnService(pools.GenAIPool(), cfg.GeminiModel)
}

// NewClientConfig copies the credential fields the client pools need.
func NewClientConfig(cfg config.Config) *repositories.AIClientConfig {
	return &repositories.AIClientConfig{
		ProjectID:     cfg.ProjectID,
		Location:      cfg.Location,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiBaseURL: cfg.GeminiBaseURL,
	}
}
