package valueobjects

import (
	"fmt"
)

type PersonGeneration string
type SafetySetting string
type MimeType string

const (
	AllowAdult PersonGeneration = "allow_adult"
	AllowAll   PersonGeneration = "allow_all"
	DontAllow  PersonGeneration = "dont_allow"
)

const (
	BlockMediumAndAbove SafetySetting = "block_medium_and_above"
	BlockLowAndAbove    SafetySetting = "block_low_and_above"
	BlockOnlyHigh       SafetySetting = "block_only_high"
	BlockNone           SafetySetting = "block_none"
)

const (
	MimeTypePNG  MimeType = "image/png"
	MimeTypeJPEG MimeType = "image/jpeg"
)

// TryOnParameters tunes the remote model. The Gemini backend only honours
// the seed; the Vertex predict backend sends all of them.
type TryOnParameters struct {
	addWatermark       bool
	baseSteps          int
	personGeneration   PersonGeneration
	safetySetting      SafetySetting
	seed               int
	outputMimeType     MimeType
	compressionQuality int
}

func NewTryOnParameters(
	addWatermark bool,
	baseSteps int,
	personGeneration PersonGeneration,
	safetySetting SafetySetting,
	seed int,
	outputMimeType MimeType,
	compressionQuality int,
) (*TryOnParameters, error) {
	if baseSteps < 1 || baseSteps > 100 {
		return nil, fmt.Errorf("baseSteps must be between 1 and 100, got %d", baseSteps)
	}

	if compressionQuality < 0 || compressionQuality > 100 {
		return nil, fmt.Errorf("compressionQuality must be between 0 and 100, got %d", compressionQuality)
	}

	if seed < 0 {
		return nil, fmt.Errorf("seed must not be negative, got %d", seed)
	}

	switch personGeneration {
	case AllowAdult, AllowAll, DontAllow:
	default:
		return nil, fmt.Errorf("invalid personGeneration: %s", personGeneration)
	}

	switch safetySetting {
	case BlockMediumAndAbove, BlockLowAndAbove, BlockOnlyHigh, BlockNone:
	default:
		return nil, fmt.Errorf("invalid safetySetting: %s", safetySetting)
	}

	if outputMimeType != MimeTypePNG && outputMimeType != MimeTypeJPEG {
		return nil, fmt.Errorf("invalid outputMimeType: %s", outputMimeType)
	}

	return &TryOnParameters{
		addWatermark:       addWatermark,
		baseSteps:          baseSteps,
		personGeneration:   personGeneration,
		safetySetting:      safetySetting,
		seed:               seed,
		outputMimeType:     outputMimeType,
		compressionQuality: compressionQuality,
	}, nil
}

func DefaultTryOnParameters() *TryOnParameters {
	params, _ := NewTryOnParameters(
		true,
		32,
		AllowAdult,
		BlockMediumAndAbove,
		0,
		MimeTypePNG,
		75,
	)
	return params
}

func (p *TryOnParameters) AddWatermark() bool {
	return p.addWatermark
}

func (p *TryOnParameters) BaseSteps() int {
	return p.baseSteps
}

func (p *TryOnParameters) PersonGeneration() PersonGeneration {
	return p.personGeneration
}

func (p *TryOnParameters) SafetySetting() SafetySetting {
	return p.safetySetting
}

func (p *TryOnParameters) Seed() int {
	return p.seed
}

func (p *TryOnParameters) OutputMimeType() MimeType {
	return p.outputMimeType
}

func (p *TryOnParameters) CompressionQuality() int {
	return p.compressionQuality
}
