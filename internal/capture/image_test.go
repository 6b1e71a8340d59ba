package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestSelectImagePNG(t *testing.T) {
	img, err := SelectImage("/home/me/menu.png", pngHeader)
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "menu.png", img.Filename)
	assert.Equal(t, pngHeader, img.Data)
	assert.True(t, strings.HasPrefix(img.Preview, "data:image/png;base64,iVBORw0KGgo"))
}

func TestSelectImageSniffsContentNotName(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

	img, err := SelectImage("photo.png", jpeg)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)

	_, err = SelectImage("notes.png", []byte("just some text, not pixels"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestSelectImageEmpty(t *testing.T) {
	_, err := SelectImage("empty.png", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSelectImageDefaultName(t *testing.T) {
	img, err := SelectImage("", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image.png", img.Filename)
}
