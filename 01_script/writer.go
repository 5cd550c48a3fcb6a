package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/config"
)

// Writer turns a prompt into narration text. It never fails: upstream
// problems come back as a diagnostic string that is narrated like any script.
type Writer interface {
	Write(ctx context.Context, prompt string) string
}

// New picks a writer from config. Without an API key generation is disabled.
func New(cfg config.ScriptConfig) Writer {
	if cfg.APIKey == "" {
		log.Warn().Str("stage", "script").Msg("GEMINI_API_KEY not set, script generation disabled")
		return Disabled{}
	}
	if cfg.Backend == "sdk" {
		return NewSDKWriter(cfg)
	}
	return NewGeminiWriter(cfg, nil)
}

// Disabled echoes the prompt back as a placeholder script.
type Disabled struct{}

func (Disabled) Write(_ context.Context, prompt string) string {
	return "Mock script for: " + prompt
}

// GeminiWriter calls the generateContent REST endpoint directly so the raw
// response body is available for diagnostics.
type GeminiWriter struct {
	cfg        config.ScriptConfig
	httpClient *http.Client
}

// NewGeminiWriter creates a REST writer. A nil client gets one with cfg.Timeout.
func NewGeminiWriter(cfg config.ScriptConfig, client *http.Client) *GeminiWriter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &GeminiWriter{cfg: cfg, httpClient: client}
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (w *GeminiWriter) Write(ctx context.Context, prompt string) string {
	log.Info().Str("stage", "script").Str("model", w.cfg.GeminiModel).Msg("generating script")

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(w.cfg.Instruction, prompt)}}}},
	}
	if w.cfg.Temperature > 0 {
		reqBody.GenerationConfig = &generationConfig{Temperature: w.cfg.Temperature}
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(w.cfg.BaseURL, "/"), w.cfg.GeminiModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", w.cfg.APIKey)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Error().Str("stage", "script").Err(err).Msg("gemini request failed")
		return fmt.Sprintf("Error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("stage", "script").Int("status", resp.StatusCode).Msg("gemini returned non-200")
		return "Error: " + string(raw)
	}

	text, ok := firstCandidateText(raw)
	if !ok {
		log.Warn().Str("stage", "script").Msg("unexpected gemini response shape")
		return "Error parsing Gemini response: " + string(raw)
	}
	return text
}

// firstCandidateText extracts candidates[0].content.parts[0].text.
func firstCandidateText(raw []byte) (string, bool) {
	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", false
	}
	if len(gr.Candidates) == 0 || gr.Candidates[0].Content == nil {
		return "", false
	}
	parts := gr.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil {
		return "", false
	}
	return *parts[0].Text, true
}

func buildPrompt(instruction, prompt string) string {
	if instruction == "" {
		return prompt
	}
	return instruction + "\n\n" + prompt
}
