// Package transcode converts arbitrary uploaded audio into the canonical
// format the recognition backend accepts: mono, 16 kHz, signed 16-bit PCM WAV.
package transcode

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolNotFound means the transcoding executable could not be launched at
// all (not installed, not on PATH, bad configured path).
var ErrToolNotFound = errors.New("transcoding tool not found")

// ExitError reports a transcoding run that started but exited non-zero.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("transcode failed (exit=%d): %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("transcode failed (exit=%d)", e.ExitCode)
}

// Transcoder produces normalized audio artifacts. Outputs are temporary files
// owned by the caller; the caller must remove them on every exit path.
type Transcoder interface {
	// Normalize converts the input into a canonical mono 16 kHz LINEAR16 WAV
	// and returns the path of the new temporary file.
	Normalize(ctx context.Context, inputPath string) (string, error)

	// Segment splits an already-normalized WAV into bounded-duration chunks
	// using a copy-based container split (no re-encode) and returns the chunk
	// paths in time order, all inside a fresh temporary directory.
	Segment(ctx context.Context, wavPath string, seconds int) ([]string, error)
}
