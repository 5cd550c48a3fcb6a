package compose

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"narrated-video-pipeline/types"
)

// Prober measures media durations with ffprobe.
type Prober struct {
	path   string
	runner Runner
}

func NewProber(ffprobePath string, runner Runner) *Prober {
	return &Prober{path: ffprobePath, runner: runner}
}

// Duration returns the container duration of path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	res := p.runner.Run(ctx, p.path, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	})
	if res.Err != nil {
		if errors.Is(res.Err, types.ErrTimeout) || errors.Is(res.Err, context.Canceled) {
			return 0, fmt.Errorf("probe %s: %w", path, res.Err)
		}
		return 0, fmt.Errorf("probe %s: %w: %v: %s", path, types.ErrProbeParse, res.Err, tail(res.Stderr, 512))
	}
	return parseDuration(res.Stdout, res.Stderr)
}

func parseDuration(stdout, stderr []byte) (float64, error) {
	text := strings.TrimSpace(string(stdout))
	d, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("%w: %q: %s", types.ErrProbeParse, text, tail(stderr, 512))
	}
	return d, nil
}
