package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"narrated-video-pipeline/config"
)

// SDKWriter generates scripts through the genai client library.
type SDKWriter struct {
	cfg  config.ScriptConfig
	opts []option.ClientOption
}

// NewSDKWriter authenticates with cfg.APIKey. Extra opts are passed to the
// client after the key, for example option.WithEndpoint.
func NewSDKWriter(cfg config.ScriptConfig, opts ...option.ClientOption) *SDKWriter {
	return &SDKWriter{cfg: cfg, opts: opts}
}

func (w *SDKWriter) Write(ctx context.Context, prompt string) string {
	text, err := w.generate(ctx, buildPrompt(w.cfg.Instruction, prompt))
	if err != nil {
		log.Error().Str("stage", "script").Err(err).Msg("genai generation failed")
		return fmt.Sprintf("Error: %v", err)
	}
	return text
}

func (w *SDKWriter) generate(ctx context.Context, prompt string) (string, error) {
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	opts := append([]option.ClientOption{option.WithAPIKey(w.cfg.APIKey)}, w.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(w.cfg.GeminiModel)
	if w.cfg.Temperature > 0 {
		model.SetTemperature(float32(w.cfg.Temperature))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("first candidate has no text parts")
	}
	return sb.String(), nil
}
