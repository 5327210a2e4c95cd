package ocr

import (
	"net/http"

	"bizcard/internal/services"
)

// Supported upload content types.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// ValidateImage sniffs data and accepts only PNG and JPEG. It returns the
// detected content type.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", services.Wrap(services.ErrValidation, "ocr", "validate image", "image is empty", nil)
	}
	switch mime := http.DetectContentType(data); mime {
	case MIMEPNG, MIMEJPEG:
		return mime, nil
	default:
		return "", services.Wrap(services.ErrValidation, "ocr", "validate image", "unsupported image type "+mime+" (want PNG or JPEG)", nil)
	}
}

// Extension returns the file extension for a supported content type.
func Extension(mime string) string {
	if mime == MIMEJPEG {
		return ".jpg"
	}
	return ".png"
}
