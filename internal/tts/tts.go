// Package tts defines the interface for remote text-to-speech synthesis.
//
// Translynk routes languages whose scripts local engines voice poorly to a
// remote high-fidelity backend. The speech dispatcher falls back to the local
// engine whenever the remote call fails.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the base subtag (e.g., "ja", "zh") sent to the backend.
	Language string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates an audio payload for the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the encoded audio payload.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/mpeg").
	ContentType string
}
