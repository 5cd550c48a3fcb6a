package audio

import (
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"narrated-video-pipeline/config"
)

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		voice    string
		text     string
		wantName string
		wantArgs []string
	}{
		{
			name:     "edge-tts with voice",
			command:  "edge-tts",
			voice:    "en-US-GuyNeural",
			text:     "hello",
			wantName: "edge-tts",
			wantArgs: []string{"--voice", "en-US-GuyNeural", "--text=hello", "--write-media", "out.mp3"},
		},
		{
			name:     "text that looks like a flag",
			command:  "edge-tts",
			text:     "- first point\n- second point",
			wantName: "edge-tts",
			wantArgs: []string{"--text=- first point\n- second point", "--write-media", "out.mp3"},
		},
		{
			name:     "python script",
			command:  "tts/speak.py",
			text:     "hello",
			wantName: "python3",
			wantArgs: []string{"tts/speak.py", "--text=hello", "--output", "out.mp3"},
		},
		{
			name:     "generic binary",
			command:  " /usr/bin/say-it ",
			text:     "--help",
			wantName: "/usr/bin/say-it",
			wantArgs: []string{"--text=--help", "--output", "out.mp3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCommandSynthesizer(config.AudioConfig{Command: tt.command, CommandVoice: tt.voice})
			name, args := c.commandLine(tt.text, "out.mp3")
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	if _, err := New(config.AudioConfig{Engine: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error")
	}
	// no key falls back to the command engine, which must exist on PATH
	if _, err := New(config.AudioConfig{Engine: "openai", Command: "no-such-tts-binary-xyz"}); err == nil {
		t.Fatal("expected error for missing fallback command")
	}
}

func TestStoreNewTrackIsFresh(t *testing.T) {
	s := NewStore(filepath.Join("static", "audio"), "/static/audio/")
	name := regexp.MustCompile(`^audio_[0-9a-f]{32}\.mp3$`)

	seen := map[string]bool{}
	for iter := 0; iter < 50; iter++ {
		tr := s.NewTrack()
		base := filepath.Base(tr.Path)
		if !name.MatchString(base) {
			t.Fatalf("bad name %q", base)
		}
		if tr.URL != "/static/audio/"+base {
			t.Fatalf("URL = %q", tr.URL)
		}
		if !strings.HasPrefix(tr.Path, filepath.Join("static", "audio")) {
			t.Fatalf("Path = %q", tr.Path)
		}
		if seen[base] {
			t.Fatalf("duplicate name %q", base)
		}
		seen[base] = true
	}
}
