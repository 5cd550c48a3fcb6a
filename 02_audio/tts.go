package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/config"
	"narrated-video-pipeline/types"
)

// Synthesizer writes spoken audio for text to outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// New picks the TTS engine from config.
func New(cfg config.AudioConfig) (Synthesizer, error) {
	engine := cfg.Engine
	if engine == "openai" && cfg.APIKey == "" {
		log.Warn().Str("stage", "audio").Msg("OPENAI_API_KEY not set, falling back to tts command")
		engine = "command"
	}

	switch engine {
	case "openai":
		return NewOpenAISynthesizer(cfg), nil
	case "command", "":
		if _, err := exec.LookPath(firstField(cfg.Command)); err != nil {
			return nil, fmt.Errorf("tts command %q not found: %w", cfg.Command, err)
		}
		return NewCommandSynthesizer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown audio engine %q", cfg.Engine)
	}
}

// CommandSynthesizer shells out to a TTS binary.
//
// edge-tts is called as: edge-tts --voice V --text="..." --write-media out.mp3
// A *.py command runs under python3; anything else gets --text=/--output.
// The text is always glued to its flag so a leading "-" is not read as an option.
type CommandSynthesizer struct {
	cfg config.AudioConfig
}

func NewCommandSynthesizer(cfg config.AudioConfig) *CommandSynthesizer {
	return &CommandSynthesizer{cfg: cfg}
}

func (c *CommandSynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	name, args := c.commandLine(text, outPath)
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Info().Str("stage", "audio").Str("engine", name).Str("out", outPath).Msg("synthesizing narration")
	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("tts after %v: %w", c.cfg.Timeout, types.ErrTimeout)
		}
		return fmt.Errorf("tts command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("tts did not produce %s", outPath)
	}
	return nil
}

func (c *CommandSynthesizer) commandLine(text, outPath string) (string, []string) {
	ttsCmd := strings.TrimSpace(c.cfg.Command)
	switch {
	case ttsCmd == "edge-tts":
		args := []string{"--text=" + text, "--write-media", outPath}
		if c.cfg.CommandVoice != "" {
			args = append([]string{"--voice", c.cfg.CommandVoice}, args...)
		}
		return "edge-tts", args
	case strings.HasSuffix(ttsCmd, ".py"):
		return "python3", []string{ttsCmd, "--text=" + text, "--output", outPath}
	default:
		return ttsCmd, []string{"--text=" + text, "--output", outPath}
	}
}

func firstField(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".py") {
		return "python3"
	}
	return s
}
