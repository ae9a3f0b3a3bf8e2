package asr

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const speechScope = "https://www.googleapis.com/auth/cloud-platform"

// ResolveCredentials picks the credentials for the Google clients, in order:
// the configured service-account file, the GOOGLE_APPLICATION_CREDENTIALS
// environment variable, then application default credentials. A configured
// path that does not exist is an error rather than a silent fall-through.
func ResolveCredentials(ctx context.Context, configuredPath string) ([]option.ClientOption, error) {
	if configuredPath != "" {
		if _, err := os.Stat(configuredPath); err != nil {
			return nil, fmt.Errorf("asr.credentials_path %q: %w", configuredPath, err)
		}
		return []option.ClientOption{option.WithCredentialsFile(configuredPath)}, nil
	}
	if envPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS %q: %w", envPath, err)
		}
		return []option.ClientOption{option.WithCredentialsFile(envPath)}, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, speechScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsNotFound, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}
