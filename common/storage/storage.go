package storage

import (
	"context"
	b64 "encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

const (
	jpegMimetype   = "image/jpeg"
	jpegDataPrefix = "data:image/jpeg;base64,"
)

var (
	ErrUnsupportedFileFormat = errors.New("for now, only jpeg is supported. the image must have the following pattern: 'data:image/jpeg;base64,[base64 encoded image]'")
	ErrInvalidEncoding       = errors.New("image is not valid base64")
)

// Storage keeps profile images. Store returns the object name to persist, Get turns it into a
// url a browser can load.
type Storage interface {
	Store(ctx context.Context, b64image string, folder string) (string, error)
	Get(ctx context.Context, fileName string) (string, error)
	Delete(ctx context.Context, fileName string) error
}

// IsDataUri tells whether value is an inline image to upload rather than an already stored object.
func IsDataUri(value string) bool {
	return strings.HasPrefix(value, "data:")
}

func decodeJpeg(dataUri string) ([]byte, error) {
	if !strings.HasPrefix(dataUri, jpegDataPrefix) {
		return nil, ErrUnsupportedFileFormat
	}
	decoded, err := b64.StdEncoding.DecodeString(strings.TrimPrefix(dataUri, jpegDataPrefix))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}
	return decoded, nil
}
