package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// wellKnownPaths are checked when neither the configured path nor the
// environment points at an ffmpeg binary.
var wellKnownPaths = []string{
	"/usr/bin/ffmpeg",
	"/usr/local/bin/ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
}

// FFmpeg shells out to an ffmpeg binary. It is the default Transcoder.
type FFmpeg struct {
	// ConfiguredPath is an explicit binary location; highest priority.
	ConfiguredPath string
	// TempDir holds normalized WAVs and chunk directories.
	TempDir string
}

func NewFFmpeg(configuredPath, tempDir string) *FFmpeg {
	return &FFmpeg{ConfiguredPath: configuredPath, TempDir: tempDir}
}

// resolveBinary picks the ffmpeg command: explicit config, then FFMPEG_PATH,
// then well-known install locations, then the bare command on the search path.
func (f *FFmpeg) resolveBinary() string {
	if f.ConfiguredPath != "" {
		if _, err := os.Stat(f.ConfiguredPath); err == nil {
			return f.ConfiguredPath
		}
		log.Warn().Str("path", f.ConfiguredPath).Msg("configured ffmpeg path does not exist, falling back")
	}
	if env := os.Getenv("FFMPEG_PATH"); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env
		}
	}
	for _, p := range wellKnownPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "ffmpeg"
}

func (f *FFmpeg) Normalize(ctx context.Context, inputPath string) (string, error) {
	if err := os.MkdirAll(f.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(f.TempDir, "norm-"+uuid.NewString()+".wav")

	// -ac 1: mono, -ar 16000: 16 kHz, pcm_s16le: uncompressed LINEAR16
	args := []string{
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"-acodec", "pcm_s16le",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	return out, nil
}

func (f *FFmpeg) Segment(ctx context.Context, wavPath string, seconds int) ([]string, error) {
	chunkDir := filepath.Join(f.TempDir, "chunks-"+uuid.NewString())
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	pattern := filepath.Join(chunkDir, "chunk-%03d.wav")

	// -c copy: container split only, no re-encode
	args := []string{
		"-y",
		"-i", wavPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		"-c", "copy",
		pattern,
	}
	if err := f.run(ctx, args); err != nil {
		_ = os.RemoveAll(chunkDir)
		return nil, err
	}

	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		_ = os.RemoveAll(chunkDir)
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	var chunks []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "chunk-") && strings.HasSuffix(name, ".wav") {
			chunks = append(chunks, filepath.Join(chunkDir, name))
		}
	}
	// chunk-%03d names sort in time order
	sort.Strings(chunks)
	if len(chunks) == 0 {
		_ = os.RemoveAll(chunkDir)
		return nil, errors.New("audio segmentation produced no chunks")
	}
	return chunks, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	bin := f.resolveBinary()
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	log.Debug().Str("bin", bin).Strs("args", args).Msg("running ffmpeg")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(stderr.String(), 512),
			}
		}
		return fmt.Errorf("%w: launching %q: %v", ErrToolNotFound, bin, err)
	}
	return nil
}

// tail keeps the last n bytes of ffmpeg output; the useful error is at the end.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
