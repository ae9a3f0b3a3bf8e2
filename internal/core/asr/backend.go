package asr

import "context"

// Backend performs speech recognition against a provider. Implementations
// must be safe for concurrent use.
type Backend interface {
	// Recognize transcribes audio content synchronously. The content must be
	// 16kHz mono LINEAR16 WAV and small enough for the provider's inline
	// request limit.
	Recognize(ctx context.Context, content []byte) (string, error)

	// StartLongRunning begins an asynchronous recognition of the object at
	// uri and returns the provider's operation name.
	StartLongRunning(ctx context.Context, uri string) (string, error)

	// PollOperation checks a previously started operation. It returns
	// done=false with a nil error while the operation is still running.
	PollOperation(ctx context.Context, name string) (text string, done bool, err error)
}
