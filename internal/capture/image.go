package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotImage rejects files whose content is not an image.
	ErrNotImage = errors.New("file is not an image")

	// ErrEmptyFile rejects zero-length uploads.
	ErrEmptyFile = errors.New("file is empty")
)

// Image is a selected image file with its preview.
type Image struct {
	Payload

	// Preview is a data URL suitable for an <img> src.
	Preview string
}

// SelectImage validates a chosen file by content, not by name, and prepares
// its payload and preview.
func SelectImage(filename string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyFile
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "image" + mt.Extension()
	}

	return Image{
		Payload: Payload{Data: data, ContentType: contentType, Filename: name},
		Preview: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}
