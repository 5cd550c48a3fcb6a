package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"narrated-video-pipeline/config"
	"narrated-video-pipeline/types"
)

// Composer turns one narration track and one visual into a captioned MP4.
type Composer struct {
	render    config.RenderConfig
	captions  config.CaptionsConfig
	outDir    string
	urlPrefix string

	encoder Runner
	prober  *Prober
	images  ImageInspector
	pool    *Pool
}

// New wires a Composer to the real ffmpeg, ffprobe and libvips.
func New(cfg *config.Config) *Composer {
	return NewComposer(cfg,
		ExecRunner{Timeout: cfg.Render.EncodeTimeout},
		NewProber(cfg.Render.FFprobePath, ExecRunner{Timeout: cfg.Render.ProbeTimeout}),
		BimgInspector{},
	)
}

// NewComposer builds a Composer around the given collaborators.
func NewComposer(cfg *config.Config, encoder Runner, prober *Prober, images ImageInspector) *Composer {
	return &Composer{
		render:    cfg.Render,
		captions:  cfg.Captions,
		outDir:    cfg.Paths.Output,
		urlPrefix: cfg.PublicPrefix(cfg.Paths.Output),
		encoder:   encoder,
		prober:    prober,
		images:    images,
		pool:      NewPool(cfg.Render.MaxConcurrent),
	}
}

// Compose validates the job, probes its inputs and runs the encoder. On any
// failure no output file is left behind.
func (c *Composer) Compose(ctx context.Context, job types.Composition) (types.OutputVideo, error) {
	start := time.Now()

	var width, height int
	if err := c.validate(job, &width, &height); err != nil {
		return types.OutputVideo{}, err
	}

	audioDur, videoDur, err := c.probe(ctx, job)
	if err != nil {
		return types.OutputVideo{}, err
	}
	duration := audioDur
	if job.IsVideo() {
		duration = min(audioDur, videoDur)
	}

	captionFile, err := writeCaptionFile("", job.Script, c.captions.MaxCharsPerLine)
	if err != nil {
		return types.OutputVideo{}, err
	}
	defer os.Remove(captionFile)

	name := types.UniqueName("final_", ".mp4")
	out := filepath.Join(c.outDir, name)
	args := c.buildArgs(job, captionFile, width, height, duration, out)

	logger := log.With().Str("stage", "compose").Str("output", name).Logger()
	logger.Info().
		Bool("video_mode", job.IsVideo()).
		Float64("duration", duration).
		Msg("encoding")

	var res Result
	err = c.pool.Do(ctx, name, func() error {
		res = c.encoder.Run(ctx, c.render.FFmpegPath, args)
		return nil
	})
	if err != nil {
		return types.OutputVideo{}, err
	}
	if res.Err != nil {
		os.Remove(out)
		if errors.Is(res.Err, context.Canceled) {
			logger.Info().Msg("encode cancelled by caller")
			return types.OutputVideo{}, fmt.Errorf("encode %s: %w", name, res.Err)
		}
		if errors.Is(res.Err, types.ErrTimeout) {
			return types.OutputVideo{}, fmt.Errorf("encode %s: %w", name, res.Err)
		}
		logger.Error().Err(res.Err).Str("stderr", tail(res.Stderr, 2048)).Msg("ffmpeg failed")
		return types.OutputVideo{}, fmt.Errorf("%w: %v: %s", types.ErrEncodingFailure, res.Err, tail(res.Stderr, 2048))
	}
	if _, err := os.Stat(out); err != nil {
		return types.OutputVideo{}, fmt.Errorf("%w: ffmpeg produced no output: %v", types.ErrEncodingFailure, err)
	}

	logger.Info().Dur("took", time.Since(start)).Msg("final video ready")
	return types.OutputVideo{
		Path:     out,
		URL:      path.Join(c.urlPrefix, name),
		Duration: duration,
	}, nil
}

func (c *Composer) validate(job types.Composition, width, height *int) error {
	if (job.ImagePath == "") == (job.VideoPath == "") {
		return fmt.Errorf("%w: exactly one of image or video is required", types.ErrInvalidComposition)
	}
	if job.AudioPath == "" {
		return fmt.Errorf("%w: audio is required", types.ErrInvalidComposition)
	}
	for _, p := range []string{job.AudioPath, job.VisualPath()} {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrInvalidComposition, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", types.ErrInvalidComposition, p)
		}
	}
	if job.IsVideo() {
		return nil
	}

	w, h, err := c.images.Size(job.ImagePath)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidComposition, err)
	}
	*width, *height = evenDims(w, h)
	if *width < 2 || *height < 2 {
		return fmt.Errorf("%w: image %dx%d is too small", types.ErrInvalidComposition, w, h)
	}
	return nil
}

// probe measures the audio and, in video mode, the video concurrently.
func (c *Composer) probe(ctx context.Context, job types.Composition) (audioDur, videoDur float64, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.prober.Duration(gctx, job.AudioPath)
		audioDur = d
		return err
	})
	if job.IsVideo() {
		g.Go(func() error {
			d, err := c.prober.Duration(gctx, job.VideoPath)
			videoDur = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return audioDur, videoDur, nil
}

func (c *Composer) buildArgs(job types.Composition, captionFile string, width, height int, duration float64, out string) []string {
	drawtext := drawtextFilter(c.captions, captionFile)

	var args []string
	var filter string
	if job.IsVideo() {
		args = []string{"-y", "-i", job.VideoPath, "-i", job.AudioPath}
		filter = drawtext + ",scale=trunc(iw/2)*2:trunc(ih/2)*2"
	} else {
		args = []string{"-y", "-loop", "1", "-i", job.ImagePath, "-i", job.AudioPath}
		filter = fmt.Sprintf("scale=%d:%d,%s", width, height, drawtext)
	}

	return append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-c:v", c.render.VideoCodec,
		"-pix_fmt", c.render.PixelFormat,
		"-c:a", c.render.AudioCodec,
		"-shortest",
		"-movflags", "+faststart",
		out,
	)
}
