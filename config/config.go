package config

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Script    ScriptConfig    `yaml:"script"`
	Audio     AudioConfig     `yaml:"audio"`
	Assets    AssetsConfig    `yaml:"assets"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Render    RenderConfig    `yaml:"render"`
	Retention RetentionConfig `yaml:"retention"`
	Paths     PathsConfig     `yaml:"paths"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	StaticPrefix string `yaml:"static_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ScriptConfig struct {
	Backend     string  `yaml:"backend"` // rest | sdk
	GeminiModel string  `yaml:"gemini_model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	// Instruction is prepended to the user prompt when non-empty.
	Instruction string        `yaml:"instruction"`
	Timeout     time.Duration `yaml:"timeout"`
	APIKey      string        `yaml:"-"`
}

type AudioConfig struct {
	Engine       string        `yaml:"engine"` // openai | command
	Command      string        `yaml:"command"`
	CommandVoice string        `yaml:"command_voice"`
	Voice        string        `yaml:"voice"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"` // empty means api.openai.com
	Timeout      time.Duration `yaml:"timeout"`
	APIKey       string        `yaml:"-"`
}

type AssetsConfig struct {
	Images      []string `yaml:"images"`
	Videos      []string `yaml:"videos"`
	SampleCount int      `yaml:"sample_count"`
}

type CaptionsConfig struct {
	FontFile        string `yaml:"font_file"`
	FontSize        int    `yaml:"font_size"`
	FontColor       string `yaml:"font_color"`
	BoxColor        string `yaml:"box_color"`
	BoxBorder       int    `yaml:"box_border"`
	MaxCharsPerLine int    `yaml:"max_chars_per_line"`
}

type RenderConfig struct {
	FFmpegPath    string        `yaml:"ffmpeg_path"`
	FFprobePath   string        `yaml:"ffprobe_path"`
	VideoCodec    string        `yaml:"video_codec"`
	AudioCodec    string        `yaml:"audio_codec"`
	PixelFormat   string        `yaml:"pixel_format"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	EncodeTimeout time.Duration `yaml:"encode_timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
}

type RetentionConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	Interval time.Duration `yaml:"interval"`
}

type PathsConfig struct {
	Static string `yaml:"static"`
	Audio  string `yaml:"audio"`
	Output string `yaml:"output"`
	Images string `yaml:"images"`
	Videos string `yaml:"videos"`
}

// Defaults returns the configuration used when no config.yaml is present.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			StaticPrefix: "/static",
		},
		Log: LogConfig{Level: "info", Pretty: true},
		Script: ScriptConfig{
			Backend:     "rest",
			GeminiModel: "gemini-2.0-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Audio: AudioConfig{
			Engine:       "openai",
			Command:      "edge-tts",
			CommandVoice: "en-US-GuyNeural",
			Voice:        "alloy",
			Model:        "tts-1",
			Timeout:      2 * time.Minute,
		},
		Assets: AssetsConfig{
			Images: []string{
				"/static/images/1.jpeg",
				"/static/images/2.jpeg",
				"/static/images/3.jpeg",
			},
			Videos: []string{
				"/static/videos/1.mp4",
				"/static/videos/2mp4.mp4",
				"/static/videos/3.mp4",
			},
			SampleCount: 3,
		},
		Captions: CaptionsConfig{
			FontFile:        "static/fonts/Roboto-Bold.ttf",
			FontSize:        48,
			FontColor:       "white",
			BoxColor:        "black@0.5",
			BoxBorder:       10,
			MaxCharsPerLine: 40,
		},
		Render: RenderConfig{
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
			VideoCodec:    "libx264",
			AudioCodec:    "aac",
			PixelFormat:   "yuv420p",
			MaxConcurrent: 2,
			EncodeTimeout: 10 * time.Minute,
			ProbeTimeout:  30 * time.Second,
		},
		Retention: RetentionConfig{
			Enabled:  true,
			TTL:      24 * time.Hour,
			Interval: time.Hour,
		},
		Paths: PathsConfig{
			Static: "static",
			Audio:  "static/audio",
			Output: "static",
			Images: "static/images",
			Videos: "static/videos",
		},
	}
}

// Load reads config.yaml over the defaults. A missing file is not an error.
// Secrets and the listen port are taken from the environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Script.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	c.Audio.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		c.Audio.BaseURL = base
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}

// PublicPrefix returns the URL under which files in dir are served. dir must
// sit inside the static root; anything else falls back to the static prefix.
func (c *Config) PublicPrefix(dir string) string {
	prefix := "/" + strings.Trim(c.Server.StaticPrefix, "/")
	rel, err := filepath.Rel(c.Paths.Static, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return prefix
	}
	return path.Join(prefix, filepath.ToSlash(rel))
}

// Dirs lists the directories that must exist before serving.
func (c *Config) Dirs() []string {
	return []string{
		c.Paths.Static,
		c.Paths.Audio,
		c.Paths.Output,
		c.Paths.Images,
		c.Paths.Videos,
		filepath.Dir(c.Captions.FontFile),
	}
}
