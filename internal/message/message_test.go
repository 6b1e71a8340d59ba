package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwappedIsAnInvolution(t *testing.T) {
	langs := []string{"en", "es", "ja", "zh-CN", "pt-BR", ""}
	texts := []string{"", "Hello", "こんにちは"}

	for _, src := range langs {
		for _, dst := range langs {
			for _, text := range texts {
				for _, tr := range texts {
					s := TextState{SourceLang: src, TargetLang: dst, Text: text, Translation: tr}
					once := s.Swapped()
					assert.Equal(t, src, once.TargetLang)
					assert.Equal(t, dst, once.SourceLang)
					assert.Equal(t, tr, once.Text)
					assert.Equal(t, text, once.Translation)
					assert.Equal(t, s, once.Swapped())
				}
			}
		}
	}
}

func TestCountUsesCodePoints(t *testing.T) {
	r := Result{SourceText: "Hello", TranslatedText: "こんにちは世界"}
	r.Count()
	assert.Equal(t, 5, r.SourceChars)
	assert.Equal(t, 7, r.TranslatedChars)
}

func TestFail(t *testing.T) {
	r := Result{SourceText: "Hello", TranslatedText: "Hola"}
	r.Fail(ErrTranslatingText)
	assert.Equal(t, "Error translating text", r.Error)
	assert.Equal(t, "Error translating text", r.TranslatedText)
}

func TestFailSource(t *testing.T) {
	r := Result{TranslatedText: "stale"}
	r.FailSource(ErrProcessingImage)
	r.Count()
	assert.Equal(t, "Error processing image", r.Error)
	assert.Equal(t, "Error processing image", r.SourceText)
	assert.Empty(t, r.TranslatedText)
	assert.Equal(t, 22, r.SourceChars)
	assert.Zero(t, r.TranslatedChars)
}

func TestParseModality(t *testing.T) {
	for _, s := range []string{"text", "audio", "image"} {
		m, ok := ParseModality(s)
		assert.True(t, ok)
		assert.Equal(t, Modality(s), m)
	}
	_, ok := ParseModality("video")
	assert.False(t, ok)
}
