package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Captions.MaxCharsPerLine != 40 {
		t.Errorf("MaxCharsPerLine = %d, want 40", cfg.Captions.MaxCharsPerLine)
	}
	if len(cfg.Assets.Images) != 3 || len(cfg.Assets.Videos) != 3 {
		t.Errorf("default catalog = %d images, %d videos", len(cfg.Assets.Images), len(cfg.Assets.Videos))
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadOverridesAndEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " key-123 ")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
captions:
  font_size: 32
render:
  encode_timeout: 90s
assets:
  videos: ["/static/videos/a.mp4"]
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Captions.FontSize != 32 {
		t.Errorf("FontSize = %d, want 32", cfg.Captions.FontSize)
	}
	if cfg.Captions.MaxCharsPerLine != 40 {
		t.Errorf("unset field lost its default: %d", cfg.Captions.MaxCharsPerLine)
	}
	if cfg.Render.EncodeTimeout != 90*time.Second {
		t.Errorf("EncodeTimeout = %v", cfg.Render.EncodeTimeout)
	}
	if len(cfg.Assets.Videos) != 1 {
		t.Errorf("Videos = %v", cfg.Assets.Videos)
	}
	if cfg.Script.APIKey != "key-123" {
		t.Errorf("APIKey = %q", cfg.Script.APIKey)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Audio.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("Audio.BaseURL = %q", cfg.Audio.BaseURL)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("captions: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestPublicPrefix(t *testing.T) {
	tests := []struct {
		static, dir, want string
	}{
		{static: "static", dir: "static", want: "/static"},
		{static: "static", dir: "static/audio", want: "/static/audio"},
		{static: "./static", dir: "static/audio/", want: "/static/audio"},
		{static: "static", dir: "/elsewhere", want: "/static"},
		{static: "static", dir: "static/../out", want: "/static"},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.Paths.Static = tt.static
		if got := cfg.PublicPrefix(tt.dir); got != tt.want {
			t.Errorf("PublicPrefix(%q) with static %q = %q, want %q", tt.dir, tt.static, got, tt.want)
		}
	}
}
