// Package message defines the core data types flowing through the translynk pipeline.
package message

import "unicode/utf8"

// Modality identifies an input flow. Each modality owns its own state and
// run generation.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
	ModalityImage Modality = "image"
)

// ParseModality validates a modality name.
func ParseModality(s string) (Modality, bool) {
	switch m := Modality(s); m {
	case ModalityText, ModalityAudio, ModalityImage:
		return m, true
	}
	return "", false
}

// Inline errors shown in place of a translation when a stage fails.
const (
	ErrProcessingAudio = "Error processing audio"
	ErrProcessingImage = "Error processing image"
	ErrTranslatingText = "Error translating text"
)

// TextState is the text modality's form: two languages and two texts.
type TextState struct {
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Swapped exchanges the languages and moves the translation into the input.
// Swapping twice returns the starting state.
func (s TextState) Swapped() TextState {
	return TextState{
		SourceLang:  s.TargetLang,
		TargetLang:  s.SourceLang,
		Text:        s.Translation,
		Translation: s.Text,
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	// RunID identifies the run in logs and traces.
	RunID    string   `json:"run_id"`
	Modality Modality `json:"modality"`

	SourceText     string `json:"source_text"`
	SourceLang     string `json:"source_lang"`
	SourceLangName string `json:"source_lang_name,omitempty"`
	TargetLang     string `json:"target_lang"`
	TargetLangName string `json:"target_lang_name,omitempty"`

	// TranslatedText holds the translation, or the inline error when translation
	// failed. Capture and recognition failures show the error in SourceText.
	TranslatedText string `json:"translated_text"`

	// Character counts of the displayed texts, in code points.
	SourceChars     int `json:"source_chars"`
	TranslatedChars int `json:"translated_chars"`

	// ImagePreview is a data URL of the uploaded image.
	ImagePreview string `json:"image_preview,omitempty"`

	// SpeechPath reports how the translation was voiced: "remote", "local" or "none".
	SpeechPath string `json:"speech_path,omitempty"`

	// Superseded is set when a newer run of the same modality started first.
	Superseded bool `json:"superseded,omitempty"`

	// Error is set if processing failed at any stage.
	Error string `json:"error,omitempty"`
}

// Fail records a stage failure; the inline error replaces the translation.
func (r *Result) Fail(inline string) {
	r.Error = inline
	r.TranslatedText = inline
}

// FailSource records a capture or recognition failure; the inline error
// replaces the recognized text and the translation stays empty.
func (r *Result) FailSource(inline string) {
	r.Error = inline
	r.SourceText = inline
	r.TranslatedText = ""
}

// Count refreshes the character counters from the displayed texts.
func (r *Result) Count() {
	r.SourceChars = utf8.RuneCountInString(r.SourceText)
	r.TranslatedChars = utf8.RuneCountInString(r.TranslatedText)
}
