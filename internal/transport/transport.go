// Package transport defines the interface for the API surfaces translynk
// exposes.
//
// Each transport (HTTP, gRPC) implements this interface and is started by the
// application with the same Service. The service doesn't care how requests
// arrive.
package transport

import (
	"context"

	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/language"
	"github.com/nadzzz/translynk/internal/message"
)

// Service is the pipeline as seen by a transport.
type Service interface {
	Translate(ctx context.Context, s message.TextState) message.Result
	Swap(s message.TextState) message.TextState
	TranslateImage(ctx context.Context, filename string, data []byte, target, source string) message.Result
	TranslateAudio(ctx context.Context, payload capture.Payload, target string) message.Result
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context, target string) message.Result
	Speak(text, code string)
	Replay(m message.Modality) error
	Languages() []language.Language
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts serving svc. It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
