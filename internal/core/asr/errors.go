package asr

import (
	"errors"
	"fmt"
)

// ErrCredentialsNotFound means no recognition backend credentials resolved
// from any of the configured sources.
var ErrCredentialsNotFound = errors.New("no speech credentials found: set asr.credentials_path, GOOGLE_APPLICATION_CREDENTIALS, or application default credentials")

// ErrBucketRequired means a remote long-running recognition was requested but
// no object-storage bucket is configured.
var ErrBucketRequired = errors.New("asr.bucket is required for long-running recognition")

// TranscriptionError wraps any irrecoverable failure from normalization,
// strategy execution, or the recognition backend.
type TranscriptionError struct {
	Cause error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Cause)
}

func (e *TranscriptionError) Unwrap() error { return e.Cause }

func failed(err error) error {
	if err == nil {
		return nil
	}
	var te *TranscriptionError
	if errors.As(err, &te) {
		return err
	}
	return &TranscriptionError{Cause: err}
}
