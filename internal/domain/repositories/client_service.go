package repositories

import (
	"context"

	"cloud.google.com/go/vertexai/genai"
	genai_std "google.golang.org/genai"
)

// AIClientConfig is shared by both client pools.
type AIClientConfig struct {
	ProjectID    string
	Location     string
	GeminiAPIKey string
	// GeminiBaseURL overrides the Gemini API endpoint. Empty means the SDK default.
	GeminiBaseURL string
}

// VertexAIClientPool lazily builds the Vertex SDK client.
type VertexAIClientPool interface {
	GetVertexAIClient(ctx context.Context) (*genai.Client, error)

	Close() error
}

// GenAIClientPool lazily builds the Gemini API client.
type GenAIClientPool interface {
	GetGenAIClient(ctx context.Context) (*genai_std.Client, error)

	Close() error
}

type ClientPoolService interface {
	VertexAIPool() VertexAIClientPool

	GenAIPool() GenAIClientPool

	Close() error
}
