package model

import (
	"encoding/json"
	"fmt"
)

// VirtualTryOnResponse is the body returned by the Vertex AI Virtual Try-On predict endpoint.
type VirtualTryOnResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction is one generated image. A filtered prediction carries only RaiFilteredReason.
type Prediction struct {
	MimeType           string `json:"mimeType"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	RaiFilteredReason  string `json:"raiFilteredReason,omitempty"`
	// set instead of image bytes when the request named a storage URI
	StorageUri       string         `json:"storageUri,omitempty"`
	SafetyAttributes map[string]any `json:"safetyAttributes,omitempty"`
}

func ParseVirtualTryOnResponse(data []byte) (*VirtualTryOnResponse, error) {
	var response VirtualTryOnResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("invalid predict response: %w", err)
	}
	return &response, nil
}
