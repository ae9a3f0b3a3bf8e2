// Package storage keeps uploaded meeting audio on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Audio stages uploaded files under a base directory, one subdirectory per
// user.
type Audio struct {
	baseDir string
}

func NewAudio(baseDir string) *Audio {
	return &Audio{baseDir: baseDir}
}

// SaveAudio streams an upload to disk and returns its absolute path. Files
// land at <base>/user-<id>/<timestamp>-<uuid><ext> so a name can never
// collide and the original extension is preserved for the transcoder.
func (a *Audio) SaveAudio(ownerID int32, r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".wav"
	}
	dir := filepath.Join(a.baseDir, fmt.Sprintf("user-%d", ownerID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
