package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAudio(t *testing.T) {
	base := t.TempDir()
	a := NewAudio(base)

	path, err := a.SaveAudio(7, strings.NewReader("audio bytes"), "standup.mp3")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(path, filepath.Join("user-7")) {
		t.Errorf("path = %q, want user-7 directory", path)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Errorf("ext = %q, want original extension kept", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveAudioDefaultExtension(t *testing.T) {
	a := NewAudio(t.TempDir())
	path, err := a.SaveAudio(1, strings.NewReader("x"), "noext")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(path) != ".wav" {
		t.Errorf("ext = %q, want .wav default", filepath.Ext(path))
	}
}

func TestSaveAudioUniqueNames(t *testing.T) {
	a := NewAudio(t.TempDir())
	p1, err := a.SaveAudio(1, strings.NewReader("x"), "same.wav")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := a.SaveAudio(1, strings.NewReader("y"), "same.wav")
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatal("two uploads of the same filename collided")
	}
}
