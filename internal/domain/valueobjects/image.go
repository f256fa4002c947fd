package valueobjects

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

const dataURIBase64Marker = ";base64,"

// NormalizedImage is an image held as encoded text, its media type and a data
// URI built from both. All three come from one read and never disagree.
type NormalizedImage struct {
	data        []byte
	encodedData string
	format      string
	displayable string
}

// NewNormalizedImage encodes data and derives the data URI. An empty or generic
// declared type is replaced by the sniffed type.
func NewNormalizedImage(data []byte, declaredType string) (*NormalizedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}

	format, err := normalizeMediaType(declaredType, data)
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	return &NormalizedImage{
		data:        data,
		encodedData: encoded,
		format:      format,
		displayable: composeDataURI(format, encoded),
	}, nil
}

// NewNormalizedImageFromBase64 is used for remote responses that already carry base64 text.
func NewNormalizedImageFromBase64(encoded, format string) (*NormalizedImage, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return NewNormalizedImage(data, format)
}

// ParseDataURI reverses DisplayableForm.
func ParseDataURI(uri string) (*NormalizedImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	format, encoded, ok := strings.Cut(rest, dataURIBase64Marker)
	if !ok {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	return NewNormalizedImageFromBase64(encoded, format)
}

func (i *NormalizedImage) Data() []byte {
	return i.data
}

func (i *NormalizedImage) EncodedData() string {
	return i.encodedData
}

func (i *NormalizedImage) Format() string {
	return i.format
}

func (i *NormalizedImage) DisplayableForm() string {
	return i.displayable
}

func (i *NormalizedImage) IsJPEG() bool {
	return i.format == string(MimeTypeJPEG)
}

// Extension returns a file extension suitable for saving the image.
func (i *NormalizedImage) Extension() string {
	switch i.format {
	case string(MimeTypeJPEG):
		return ".jpg"
	case string(MimeTypePNG):
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(i.format); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}

// ToJPEG re-encodes the image for backends that only accept JPEG input.
func (i *NormalizedImage) ToJPEG() (*NormalizedImage, error) {
	if i.IsJPEG() {
		return i, nil
	}

	img, _, err := image.Decode(bytes.NewReader(i.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}

	return NewNormalizedImage(buf.Bytes(), string(MimeTypeJPEG))
}

func composeDataURI(format, encoded string) string {
	return "data:" + format + dataURIBase64Marker + encoded
}

func normalizeMediaType(declared string, data []byte) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if mediaType != "" {
		parsed, _, err := mime.ParseMediaType(mediaType)
		if err != nil {
			return "", fmt.Errorf("invalid media type %q: %w", declared, err)
		}
		mediaType = parsed
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = detectFormat(data)
	}

	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}
	return mediaType, nil
}

func detectFormat(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format
	}
	return http.DetectContentType(data)
}
