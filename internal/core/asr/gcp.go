package asr

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GCPBackend implements Backend on top of Google Cloud Speech-to-Text.
type GCPBackend struct {
	client       *speech.Client
	languageCode string
}

func NewGCPBackend(ctx context.Context, languageCode string, opts ...option.ClientOption) (*GCPBackend, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCPBackend{
		client:       client,
		languageCode: languageCode,
	}, nil
}

func (b *GCPBackend) Close() error {
	return b.client.Close()
}

// recognitionConfig matches the output of the normalization step: 16kHz mono
// LINEAR16.
func (b *GCPBackend) recognitionConfig() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            16000,
		AudioChannelCount:          1,
		LanguageCode:               b.languageCode,
		EnableAutomaticPunctuation: true,
	}
}

func (b *GCPBackend) Recognize(ctx context.Context, content []byte) (string, error) {
	resp, err := b.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: b.recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return "", err
	}
	return joinResults(resp.GetResults()), nil
}

func (b *GCPBackend) StartLongRunning(ctx context.Context, uri string) (string, error) {
	op, err := b.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: b.recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri},
		},
	})
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (b *GCPBackend) PollOperation(ctx context.Context, name string) (string, bool, error) {
	op := b.client.LongRunningRecognizeOperation(name)
	resp, err := op.Poll(ctx)
	if err != nil {
		return "", false, err
	}
	if !op.Done() {
		return "", false, nil
	}
	return joinResults(resp.GetResults()), true, nil
}

// joinResults flattens recognition results into a single transcript, taking
// the top alternative of each result and skipping empty ones.
func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
