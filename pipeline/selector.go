package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/01_script"
	"narrated-video-pipeline/02_audio"
	"narrated-video-pipeline/03_assets"
	"narrated-video-pipeline/types"
)

// Selector runs the first half of the pipeline: prompt to narration,
// narration to speech, plus a fresh pick of candidate visuals.
type Selector struct {
	writer script.Writer
	voice  audio.Synthesizer
	store  *audio.Store
	picker *assets.Picker
}

func NewSelector(writer script.Writer, voice audio.Synthesizer, store *audio.Store, picker *assets.Picker) *Selector {
	return &Selector{writer: writer, voice: voice, store: store, picker: picker}
}

// Generate produces a script, its narration and a set of assets for prompt.
// Assets are picked first so a short catalog fails before any audio is written.
func (s *Selector) Generate(ctx context.Context, prompt string) (types.Generation, error) {
	start := time.Now()

	images, videos, err := s.picker.Pick()
	if err != nil {
		return types.Generation{}, err
	}

	text := s.writer.Write(ctx, prompt)
	log.Info().Str("stage", "script").Int("chars", len(text)).Msg("script ready")

	track := s.store.NewTrack()
	if err := s.voice.Synthesize(ctx, text, track.Path); err != nil {
		return types.Generation{}, fmt.Errorf("synthesize narration: %w", err)
	}
	log.Info().Str("stage", "audio").Str("file", track.URL).Dur("took", time.Since(start)).Msg("narration ready")

	return types.Generation{
		Script: text,
		Audio:  track,
		Images: images,
		Videos: videos,
	}, nil
}
