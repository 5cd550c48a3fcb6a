package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"narrated-video-pipeline/config"
	"narrated-video-pipeline/types"
)

// maxSpeechInput is the longest input the speech endpoint accepts, in characters.
const maxSpeechInput = 4096

// OpenAISynthesizer uses the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	cfg    config.AudioConfig
	client *openai.Client
}

func NewOpenAISynthesizer(cfg config.AudioConfig) *OpenAISynthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAISynthesizer{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

// Synthesize speaks text into outPath. Text over the endpoint limit is sent
// in pieces and the mp3 streams are appended to the same file.
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	pieces := splitNarration(text, maxSpeechInput)
	if len(pieces) == 0 {
		pieces = []string{text}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}

	log.Info().Str("stage", "audio").Str("engine", "openai").Str("out", outPath).Int("pieces", len(pieces)).Msg("synthesizing narration")
	for i, piece := range pieces {
		if err := o.speak(ctx, piece, out); err != nil {
			out.Close()
			os.Remove(outPath)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("openai speech after %v: %w", o.cfg.Timeout, types.ErrTimeout)
			}
			return fmt.Errorf("synthesize speech (part %d of %d): %w", i+1, len(pieces), err)
		}
	}
	return out.Close()
}

func (o *OpenAISynthesizer) speak(ctx context.Context, input string, w io.Writer) error {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          input,
		Voice:          openai.SpeechVoice(o.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	if _, err := io.Copy(w, resp); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

// splitNarration cuts text into pieces of at most limit runes. Cuts land after
// the last sentence end in range, else at the last space, else mid-word.
func splitNarration(text string, limit int) []string {
	var pieces []string
	add := func(r []rune) {
		if s := strings.TrimSpace(string(r)); s != "" {
			pieces = append(pieces, s)
		}
	}

	rest := []rune(strings.TrimSpace(text))
	for len(rest) > limit {
		cut := sentenceCut(rest, limit)
		if cut == 0 {
			cut = spaceCut(rest, limit)
		}
		if cut == 0 {
			cut = limit
		}
		add(rest[:cut])
		rest = rest[cut:]
		for len(rest) > 0 && unicode.IsSpace(rest[0]) {
			rest = rest[1:]
		}
	}
	add(rest)
	return pieces
}

// sentenceCut returns the index just past the last newline, or the last
// '.', '!' or '?' followed by whitespace, in rest[:limit]. It returns 0 if
// there is none.
func sentenceCut(rest []rune, limit int) int {
	for i := limit - 1; i > 0; i-- {
		switch rest[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if unicode.IsSpace(rest[i+1]) {
				return i + 1
			}
		}
	}
	return 0
}

// spaceCut returns the index of the last whitespace in rest[:limit+1], or 0.
func spaceCut(rest []rune, limit int) int {
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(rest[i]) {
			return i
		}
	}
	return 0
}
